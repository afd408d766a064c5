package env

import (
	"math"
	"testing"
	"time"
)

func testLighting(t *testing.T, cfg LightingSettings) *Lighting {
	t.Helper()
	l := NewLighting(cfg)
	if err := l.Initialize(); err != nil {
		t.Fatal(err)
	}
	return l
}

func lightStep(t *testing.T, l *Lighting, dt time.Duration) []Event {
	t.Helper()
	if err := l.Update(UpdateContext{Delta: dt, World: testBounds, Allowance: 1}); err != nil {
		t.Fatal(err)
	}
	return l.Events(0, 0)
}

func TestAmbientStartsAtConfiguredLevel(t *testing.T) {
	l := testLighting(t, DefaultSettings().Lighting)
	if got := l.Ambient().Level; got != 0.35 {
		t.Fatalf("ambient level = %v, want 0.35", got)
	}
	if got := l.Ambient().Surge; got != 0 {
		t.Fatalf("initial surge = %v, want 0", got)
	}
}

func TestFlashSurgesAndDecays(t *testing.T) {
	l := testLighting(t, DefaultSettings().Lighting)
	base := l.Ambient().Brightness()

	l.Flash(Vec2{X: 80, Y: 25}, 1)
	lit := l.Ambient().Brightness()
	if lit <= base {
		t.Fatalf("flash did not brighten: %v -> %v", base, lit)
	}

	for i := 0; i < 10; i++ {
		lightStep(t, l, 500*time.Millisecond)
	}
	if len(l.flashes) != 0 {
		t.Fatalf("%d flashes survived decay", len(l.flashes))
	}
	if got := l.Ambient().Brightness(); math.Abs(got-base) > 0.02 {
		t.Fatalf("brightness settled at %v, want ~%v", got, base)
	}
}

func TestLightingShiftEventsOnBothEdges(t *testing.T) {
	l := testLighting(t, DefaultSettings().Lighting)

	l.Flash(Vec2{}, 0.6)
	evs := lightStep(t, l, time.Millisecond)
	if len(evs) != 1 || evs[0].Type != EventLightingShift {
		t.Fatalf("flash shift events = %+v", evs)
	}
	if d := evs[0].Param("delta", 0); d <= 0 {
		t.Fatalf("upward shift delta = %v, want positive", d)
	}

	var down bool
	for i := 0; i < 20 && !down; i++ {
		for _, ev := range lightStep(t, l, 500*time.Millisecond) {
			if ev.Type == EventLightingShift && ev.Param("delta", 0) < 0 {
				down = true
			}
		}
	}
	if !down {
		t.Fatal("decay never raised a downward shift")
	}
}

func TestSmallChangesStayQuiet(t *testing.T) {
	cfg := DefaultSettings().Lighting
	cfg.ShiftNotify = 0.25
	l := testLighting(t, cfg)

	l.Flash(Vec2{}, 0.1)
	if evs := lightStep(t, l, time.Millisecond); len(evs) != 0 {
		t.Fatalf("sub-threshold change raised %+v", evs)
	}
}

func TestPulseBeatsThenExpires(t *testing.T) {
	cfg := DefaultSettings().Lighting
	cfg.PulseSecs = 0.5
	l := testLighting(t, cfg)

	l.StartPulse(Vec2{X: 40, Y: 20}, 1)
	if got := l.Stats().Elements; got != 1 {
		t.Fatalf("elements = %d, want 1", got)
	}

	lightStep(t, l, 600*time.Millisecond)
	if len(l.pulses) != 0 {
		t.Fatalf("%d pulses survived their lifetime", len(l.pulses))
	}
}

func TestSurgeHasNoSourceButDecays(t *testing.T) {
	l := testLighting(t, DefaultSettings().Lighting)

	l.Surge(0.5)
	if got := l.Ambient().Surge; got != 0.5 {
		t.Fatalf("surge = %v, want 0.5", got)
	}
	if len(l.flashes) != 0 {
		t.Fatal("surge created a positional flash")
	}

	lightStep(t, l, 2*time.Second)
	if got := l.Ambient().Surge; got >= 0.5 {
		t.Fatalf("surge did not decay: %v", got)
	}
}

func TestSetAmbientLevelClamped(t *testing.T) {
	l := testLighting(t, DefaultSettings().Lighting)

	l.SetAmbientLevel(2)
	if got := l.Ambient().Level; got != 1 {
		t.Fatalf("level = %v, want clamp at 1", got)
	}
	l.SetAmbientLevel(-1)
	if got := l.Ambient().Level; got != 0.05 {
		t.Fatalf("level = %v, want clamp at 0.05", got)
	}
}

func TestBrightnessClamped(t *testing.T) {
	a := AmbientLight{Level: 1, Surge: 5}
	if got := a.Brightness(); got != 1.5 {
		t.Fatalf("brightness = %v, want ceiling 1.5", got)
	}
	b := AmbientLight{Level: 0.2, Surge: -1}
	if got := b.Brightness(); got != 0 {
		t.Fatalf("brightness = %v, want floor 0", got)
	}
}
