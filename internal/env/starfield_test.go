package env

import (
	"testing"
	"time"
)

func starfieldWith(t *testing.T, cfg StarfieldSettings) *Starfield {
	t.Helper()
	s := NewStarfield(cfg, testBounds)
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStarCountFollowsQualityAndDetail(t *testing.T) {
	// 160x50 world, density 2.5 per 1000 units: 20 stars at full factors.
	cfg := StarfieldSettings{Enabled: true, Density: 2.5, Layers: 3, TwinkleHz: 0.8, MaxStars: 900}
	s := starfieldWith(t, cfg)

	// Medium quality x medium detail = 1.0 * 0.75.
	if got := len(s.stars); got != 15 {
		t.Fatalf("initial stars = %d, want 15", got)
	}

	s.SetQuality(QualityExtreme)
	s.UpdateLOD(LODMaximum)
	if err := s.Update(UpdateContext{Delta: 16 * time.Millisecond, World: testBounds, Allowance: 1}); err != nil {
		t.Fatal(err)
	}
	if got := len(s.stars); got != 50 {
		t.Fatalf("stars at extreme/maximum = %d, want 50", got)
	}

	s.UpdateLOD(LODVeryLow)
	if err := s.Update(UpdateContext{Delta: 16 * time.Millisecond, World: testBounds, Allowance: 1}); err != nil {
		t.Fatal(err)
	}
	if got := len(s.stars); got != 10 {
		t.Fatalf("stars at very low detail = %d, want 10", got)
	}
}

func TestStarCountRespectsCap(t *testing.T) {
	cfg := StarfieldSettings{Enabled: true, Density: 2.5, Layers: 3, TwinkleHz: 0.8, MaxStars: 7}
	s := starfieldWith(t, cfg)

	if got := len(s.stars); got != 7 {
		t.Fatalf("stars = %d, want the cap 7", got)
	}
	if got := s.Stats().Elements; got != 7 {
		t.Fatalf("stats elements = %d, want 7", got)
	}
}

func TestStarsStayInWorldLayers(t *testing.T) {
	cfg := StarfieldSettings{Enabled: true, Density: 2.5, Layers: 3, TwinkleHz: 0.8, MaxStars: 900}
	s := starfieldWith(t, cfg)

	for _, st := range s.stars {
		if st.x < 0 || st.x >= testBounds.Width || st.y < 0 || st.y >= testBounds.Height {
			t.Fatalf("star outside world: %v,%v", st.x, st.y)
		}
		if st.layer < 0 || st.layer >= cfg.Layers {
			t.Fatalf("star layer %d outside [0,%d)", st.layer, cfg.Layers)
		}
	}
}

func TestDensityScaleClamped(t *testing.T) {
	s := starfieldWith(t, DefaultSettings().Starfield)

	s.SetDensityScale(0)
	if s.scale != 0.1 {
		t.Fatalf("scale = %v, want clamp at 0.1", s.scale)
	}
	s.SetDensityScale(10)
	if s.scale != 3 {
		t.Fatalf("scale = %v, want clamp at 3", s.scale)
	}
}

func TestWrapCoordFolds(t *testing.T) {
	cases := []struct {
		v, span, want float64
	}{
		{170, 160, 10},
		{-10, 160, 150},
		{0, 160, 0},
		{5, 0, 5}, // Degenerate span passes through
	}
	for _, c := range cases {
		if got := wrapCoord(c.v, c.span); got != c.want {
			t.Errorf("wrapCoord(%v, %v) = %v, want %v", c.v, c.span, got, c.want)
		}
	}
}
