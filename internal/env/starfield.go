package env

import (
	"math"
	"math/rand"
	"time"
)

// star is one point in the parallax field. Layer 0 is the farthest.
type star struct {
	x, y  float64
	layer int
	phase float64
}

// Starfield scatters twinkling stars across parallax depth layers. Star
// count scales with world area, quality tier, the frame's detail level
// and the preset density multiplier, capped by the configured maximum.
type Starfield struct {
	cfg   StarfieldSettings
	world Bounds

	stars []star
	scale float64
	clock float64

	quality Quality
	lod     LODLevel
}

// NewStarfield builds the starfield from its settings section.
func NewStarfield(cfg StarfieldSettings, world Bounds) *Starfield {
	return &Starfield{
		cfg:     cfg,
		world:   world,
		scale:   1,
		quality: QualityMedium,
		lod:     LODMedium,
	}
}

func (s *Starfield) Name() string { return SystemStarfield }

func (s *Starfield) Layer() Layer { return LayerStarfield }

func (s *Starfield) Initialize() error {
	s.reconcile()
	return nil
}

// targetCount is the star population the current settings ask for.
func (s *Starfield) targetCount() int {
	n := s.cfg.Density * s.world.Area() / 1000
	n *= s.quality.Factor() * s.lod.Factor() * s.scale
	count := int(n)
	if count > s.cfg.MaxStars {
		count = s.cfg.MaxStars
	}
	if count < 0 {
		count = 0
	}
	return count
}

// reconcile grows or trims the star slice toward the target. Stars are
// interchangeable, so trimming truncates and growth appends fresh rolls.
func (s *Starfield) reconcile() {
	target := s.targetCount()
	if len(s.stars) > target {
		s.stars = s.stars[:target]
		return
	}
	layers := s.cfg.Layers
	if layers < 1 {
		layers = 1
	}
	for len(s.stars) < target {
		s.stars = append(s.stars, star{
			x:     rand.Float64() * s.world.Width,
			y:     rand.Float64() * s.world.Height,
			layer: rand.Intn(layers),
			phase: rand.Float64() * 2 * math.Pi,
		})
	}
}

func (s *Starfield) Update(ctx UpdateContext) error {
	start := time.Now()
	s.clock += ctx.Delta.Seconds()
	s.reconcile()
	reportImpact(ctx, SystemStarfield, start, len(s.stars), int64(cap(s.stars))*40)
	return nil
}

func (s *Starfield) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}

	layers := float64(s.cfg.Layers)
	if layers < 1 {
		layers = 1
	}

	// Strong ambient light washes the faint stars out.
	vis := 1.0
	if b := ctx.Ambient.Brightness(); b > 1 {
		vis = math.Max(0.3, 1-(b-1)*0.8)
	}

	for _, st := range s.stars {
		depth := float64(st.layer+1) / layers
		p := 0.3 + 0.7*depth

		x := wrapCoord(st.x-ctx.Camera.X*p, s.world.Width)
		y := wrapCoord(st.y-ctx.Camera.Y*p, s.world.Height)

		tw := 0.55 + 0.45*math.Sin(2*math.Pi*s.cfg.TwinkleHz*s.clock+st.phase)
		if tw*vis < 0.35+0.25*depth {
			continue
		}

		ch, fg := starGlyph(depth, tw)
		ctx.Canvas.SetCellFloat(x, y, ch, fg)
	}
	return nil
}

// starGlyph picks the glyph and color for a star by depth, with a
// brighter flash at twinkle peaks.
func starGlyph(depth, tw float64) (rune, uint8) {
	switch {
	case depth <= 0.34:
		return '.', 240
	case depth <= 0.67:
		return '+', 250
	case tw > 0.92:
		return '*', 159
	default:
		return '*', 231
	}
}

// SetDensityScale adjusts the preset density multiplier.
func (s *Starfield) SetDensityScale(scale float64) {
	s.scale = math.Max(0.1, math.Min(3, scale))
}

func (s *Starfield) UpdateLOD(level LODLevel) { s.lod = level }

func (s *Starfield) SetQuality(q Quality) { s.quality = q }

func (s *Starfield) Events(px, py float64) []Event { return nil }

func (s *Starfield) Stats() SystemStats {
	return SystemStats{Elements: len(s.stars)}
}

func (s *Starfield) Close() error {
	s.stars = nil
	return nil
}

// wrapCoord folds a coordinate back into [0, span).
func wrapCoord(v, span float64) float64 {
	if span <= 0 {
		return v
	}
	v = math.Mod(v, span)
	if v < 0 {
		v += span
	}
	return v
}
