package env

// PerformanceStats is the aggregate frame cost of the whole environment.
type PerformanceStats struct {
	FPS           float64
	UpdateMillis  float64 // Whole-environment update cost last frame
	RenderMillis  float64 // Whole-environment render cost last frame
	TotalElements int     // Sum of element counts across active systems
	ActiveSystems int
	MemoryBytes   int64 // Estimated from the systems' impact reports
	LOD           LODLevel
}

// Statistics is the read-only snapshot the manager recomputes every frame
// for diagnostics and HUD overlays. Systems never mutate it directly.
type Statistics struct {
	Performance PerformanceStats
	Systems     map[string]SystemStats
	Preset      Preset // Last applied environment preset, empty if none
}

// clone copies the snapshot so callers can hold it across frames.
func (s Statistics) clone() Statistics {
	out := s
	out.Systems = make(map[string]SystemStats, len(s.Systems))
	for name, st := range s.Systems {
		out.Systems[name] = st
	}
	return out
}
