package env

// LODManager maps camera state and measured FPS to a discrete detail level.
// The policy is monotonic: a farther camera or a lower FPS never yields
// finer detail. On top of the computed level sits a sticky reactive
// reduction, deepened when systems report heavy frames and undone one step
// at a time after a sustained run of healthy frames.
type LODManager struct {
	cfg       LODSettings
	quality   Quality
	reduction int
	healthy   int // Consecutive healthy frames since the last change
}

// NewLODManager creates a manager for the given policy and quality tier.
func NewLODManager(cfg LODSettings, q Quality) *LODManager {
	return &LODManager{cfg: cfg, quality: q}
}

// Level returns the detail level for the current camera state and FPS.
func (m *LODManager) Level(cam Camera, fps float64) LODLevel {
	level := m.baseLevel()

	if fps < m.cfg.FPSCritical {
		level -= 2
	} else if fps < m.cfg.FPSLow {
		level--
	}

	if cam.Dist >= m.cfg.VeryFarDist {
		level -= 2
	} else if cam.Dist >= m.cfg.FarDist {
		level--
	}

	level -= LODLevel(m.reduction)
	return clampLOD(level)
}

// baseLevel maps the quality tier to its starting detail level.
func (m *LODManager) baseLevel() LODLevel {
	switch m.quality {
	case QualityPotato:
		return LODVeryLow
	case QualityLow:
		return LODLow
	case QualityMedium:
		return LODMedium
	case QualityHigh:
		return LODHigh
	default:
		return LODMaximum
	}
}

// Reduce deepens the reactive reduction by one step. Called when a system
// reports severity at or above the threshold.
func (m *LODManager) Reduce() {
	if m.reduction < int(LODMaximum) {
		m.reduction++
	}
	m.healthy = 0
}

// Observe counts healthy frames and undoes one reduction step after a
// sustained run above the low-FPS threshold.
func (m *LODManager) Observe(fps float64) {
	if m.reduction == 0 {
		return
	}
	if fps < m.cfg.FPSLow {
		m.healthy = 0
		return
	}
	m.healthy++
	if m.healthy >= m.cfg.RecoverFrames {
		m.reduction--
		m.healthy = 0
	}
}

// SetQualityLevel rebases the policy on a new quality tier and clears the
// reactive reduction.
func (m *LODManager) SetQualityLevel(q Quality) {
	m.quality = q
	m.reduction = 0
	m.healthy = 0
}

// Quality returns the current quality tier.
func (m *LODManager) Quality() Quality {
	return m.quality
}

// Reduction returns the depth of the reactive reduction, for diagnostics.
func (m *LODManager) Reduction() int {
	return m.reduction
}
