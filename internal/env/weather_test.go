package env

import (
	"testing"
	"time"
)

func testWeather(stormSecs, frontSecs float64) *Weather {
	cfg := DefaultSettings().Weather
	cfg.StormSecs = stormSecs
	cfg.FrontSecs = frontSecs
	return NewWeather(cfg, testBounds)
}

func weatherStep(t *testing.T, w *Weather, dt time.Duration) []Event {
	t.Helper()
	if err := w.Update(UpdateContext{Delta: dt, World: testBounds, Allowance: 1}); err != nil {
		t.Fatal(err)
	}
	return w.Events(0, 0)
}

func TestForcedMeteorShowerAnnouncesItself(t *testing.T) {
	w := testWeather(18, 6)
	w.StartMeteorShower(1)

	evs := w.Events(0, 0)
	if len(evs) != 1 || evs[0].Type != EventStormApproaching {
		t.Fatalf("events = %+v, want one approaching", evs)
	}
	if kind := evs[0].Param("kind", -1); kind != float64(stormMeteor) {
		t.Fatalf("announced kind = %v, want meteor", kind)
	}
	if evs[0].Duration <= 0 {
		t.Fatal("announcement carries no duration")
	}

	if w.phase != phaseStorm {
		t.Fatalf("phase = %v, want storm", w.phase)
	}
	if w.Intensity() <= 0 {
		t.Fatal("forced storm has zero intensity")
	}
	weatherStep(t, w, 50*time.Millisecond)
	if w.Intensity() <= 0 {
		t.Fatal("storm intensity collapsed after one frame")
	}
}

func TestStormSpawnsAndShedsParticles(t *testing.T) {
	w := testWeather(18, 6)
	w.cfg.StormChance = 0 // No spontaneous follow-up front
	w.StartIonStorm(1)

	for i := 0; i < 30; i++ {
		weatherStep(t, w, 50*time.Millisecond)
	}
	if len(w.particles) == 0 {
		t.Fatal("storm produced no particles")
	}
	limit := int(float64(w.cfg.MaxParticles) * w.quality.Factor() * w.lod.Factor())
	if len(w.particles) > limit {
		t.Fatalf("population %d above cap %d", len(w.particles), limit)
	}

	// Let the storm die and the particles drain.
	w.phase = phaseClearing
	w.phaseLeft = 0.01
	for i := 0; i < 80; i++ {
		weatherStep(t, w, 50*time.Millisecond)
	}
	if len(w.particles) != 0 {
		t.Fatalf("%d particles survived the calm", len(w.particles))
	}
}

func TestStormCycleEndsWithClearedEvent(t *testing.T) {
	w := testWeather(0.5, 0.4)
	w.StartMeteorShower(0.5)
	weatherStep(t, w, 10*time.Millisecond)

	var cleared bool
	for i := 0; i < 100 && !cleared; i++ {
		for _, ev := range weatherStep(t, w, 50*time.Millisecond) {
			if ev.Type == EventStormCleared {
				cleared = true
			}
		}
	}
	if !cleared {
		t.Fatal("storm never cleared")
	}
	if w.phase != phaseCalm {
		t.Fatalf("phase = %v, want calm", w.phase)
	}
	if w.Intensity() != 0 {
		t.Fatalf("calm intensity = %v", w.Intensity())
	}
}

func TestFrontRampsIntoStorm(t *testing.T) {
	w := testWeather(18, 1)
	w.beginFront(0.8, stormIon)

	evs := w.Events(0, 0)
	if len(evs) != 1 || evs[0].Type != EventStormApproaching {
		t.Fatalf("front events = %+v", evs)
	}

	weatherStep(t, w, 400*time.Millisecond)
	mid := w.Intensity()
	if mid <= 0 || mid >= 0.8 {
		t.Fatalf("front intensity = %v, want ramping toward 0.8", mid)
	}

	weatherStep(t, w, 700*time.Millisecond)
	if w.phase != phaseStorm {
		t.Fatalf("phase after front = %v, want storm", w.phase)
	}
}

func TestShockwaveBurstsOutward(t *testing.T) {
	w := testWeather(18, 6)
	w.Shockwave(Vec2{X: 80, Y: 25}, 1)

	if len(w.particles) == 0 {
		t.Fatal("shockwave spawned nothing")
	}
	for _, p := range w.particles {
		if p.x != 80 || p.y != 25 {
			t.Fatalf("particle starts at %v,%v, want the origin", p.x, p.y)
		}
	}

	evs := w.Events(0, 0)
	if len(evs) != 1 || evs[0].Type != EventRayBurst {
		t.Fatalf("shockwave events = %+v, want one ray burst", evs)
	}
}

func TestActivityScaleClamped(t *testing.T) {
	w := testWeather(18, 6)

	w.SetActivityScale(99)
	if w.activity != 3 {
		t.Fatalf("activity = %v, want clamp at 3", w.activity)
	}
	w.SetActivityScale(0)
	if w.activity != 0.1 {
		t.Fatalf("activity = %v, want clamp at 0.1", w.activity)
	}
}
