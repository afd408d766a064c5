package env

import "fmt"

// Quality is the operator-chosen baseline richness tier for all systems.
// Higher tiers mean equal-or-richer visuals at equal-or-greater cost; each
// system translates the tier into its own element counts.
type Quality int

const (
	QualityPotato Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityUltra
	QualityExtreme
)

var qualityNames = [...]string{"potato", "low", "medium", "high", "ultra", "extreme"}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("quality(%d)", int(q))
	}
	return qualityNames[q]
}

// Factor returns the element-count multiplier systems apply for this tier.
func (q Quality) Factor() float64 {
	switch q {
	case QualityPotato:
		return 0.25
	case QualityLow:
		return 0.5
	case QualityMedium:
		return 1.0
	case QualityHigh:
		return 1.25
	case QualityUltra:
		return 1.5
	default:
		return 2.0
	}
}

// MarshalText implements encoding.TextMarshaler so quality reads naturally
// in settings files.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuality parses a quality name as written in settings files.
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if s == name {
			return Quality(i), nil
		}
	}
	return QualityMedium, fmt.Errorf("unknown quality %q", s)
}

// LODLevel is the reactive detail tier layered on top of quality. It is
// chosen per frame from camera distance and measured FPS, and lowered
// further when systems report heavy frames.
type LODLevel int

const (
	LODVeryLow LODLevel = iota
	LODLow
	LODMedium
	LODHigh
	LODMaximum
)

var lodNames = [...]string{"very_low", "low", "medium", "high", "maximum"}

func (l LODLevel) String() string {
	if l < 0 || int(l) >= len(lodNames) {
		return fmt.Sprintf("lod(%d)", int(l))
	}
	return lodNames[l]
}

// Factor returns the element-count multiplier systems apply for this level.
func (l LODLevel) Factor() float64 {
	switch l {
	case LODVeryLow:
		return 0.25
	case LODLow:
		return 0.5
	case LODMedium:
		return 0.75
	case LODHigh:
		return 1.0
	default:
		return 1.25
	}
}

// clampLOD bounds a level to the valid enum range.
func clampLOD(l LODLevel) LODLevel {
	if l < LODVeryLow {
		return LODVeryLow
	}
	if l > LODMaximum {
		return LODMaximum
	}
	return l
}
