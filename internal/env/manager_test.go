package env

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var testBounds = Bounds{Width: 160, Height: 50}

const testDelta = 16 * time.Millisecond

// stubSystem is a minimal System for exercising the manager alone.
type stubSystem struct {
	name     string
	layer    Layer
	elements int

	initErr error
	updErr  error

	inits   int
	closes  int
	updates int

	quals []Quality
	lods  []LODLevel

	pending  []Event
	severity float64

	seenAmbient []AmbientLight
	drawLog     *[]string
}

func (s *stubSystem) Name() string { return s.name }

func (s *stubSystem) Layer() Layer { return s.layer }

func (s *stubSystem) Initialize() error {
	s.inits++
	return s.initErr
}

func (s *stubSystem) Update(ctx UpdateContext) error {
	s.updates++
	s.seenAmbient = append(s.seenAmbient, ctx.Ambient)
	if s.severity > 0 && ctx.Impacts != nil {
		ctx.Impacts.Report(Impact{System: s.name, Severity: s.severity})
	}
	return s.updErr
}

func (s *stubSystem) Render(ctx RenderContext) error {
	if s.drawLog != nil {
		*s.drawLog = append(*s.drawLog, s.name)
	}
	return nil
}

func (s *stubSystem) UpdateLOD(level LODLevel) { s.lods = append(s.lods, level) }

func (s *stubSystem) SetQuality(q Quality) { s.quals = append(s.quals, q) }

func (s *stubSystem) Events(px, py float64) []Event {
	out := s.pending
	s.pending = nil
	return out
}

func (s *stubSystem) Stats() SystemStats { return SystemStats{Elements: s.elements} }

func (s *stubSystem) Close() error {
	s.closes++
	return nil
}

// stubLight additionally produces ambient light.
type stubLight struct {
	stubSystem
	out AmbientLight
}

func (s *stubLight) Ambient() AmbientLight { return s.out }

func newStubManager(t *testing.T, systems ...System) *Manager {
	t.Helper()
	m, err := NewWithSystems(DefaultSettings(), testBounds, zap.NewNop(), systems...)
	if err != nil {
		t.Fatalf("NewWithSystems: %v", err)
	}
	return m
}

func stepFrame(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.Update(testDelta, Camera{Dist: 1}, Vec2{X: 80, Y: 25}); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestInitFailureDisposesEarlierSystems(t *testing.T) {
	a := &stubSystem{name: "a", layer: LayerBackground}
	b := &stubSystem{name: "b", layer: LayerWeather, initErr: errors.New("no vram")}
	c := &stubSystem{name: "c", layer: LayerInteractive}

	m, err := NewWithSystems(DefaultSettings(), testBounds, zap.NewNop(), a, b, c)
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if m != nil {
		t.Fatal("expected nil manager on failure")
	}
	if a.inits != 1 || a.closes != 1 {
		t.Errorf("first system: inits=%d closes=%d, want 1/1", a.inits, a.closes)
	}
	if b.closes != 0 {
		t.Errorf("failed system was disposed: closes=%d", b.closes)
	}
	if c.inits != 0 || c.closes != 0 {
		t.Errorf("later system was touched: inits=%d closes=%d", c.inits, c.closes)
	}
}

func TestDuplicateSystemNameRejected(t *testing.T) {
	_, err := NewWithSystems(DefaultSettings(), testBounds, zap.NewNop(),
		&stubSystem{name: "twin", layer: LayerBackground},
		&stubSystem{name: "twin", layer: LayerWeather},
	)
	if err == nil {
		t.Fatal("expected duplicate name to fail")
	}
}

func TestRenderOrderIgnoresRegistrationOrder(t *testing.T) {
	var log []string
	// Registered backwards on purpose.
	systems := []System{
		&stubSystem{name: "glow", layer: LayerLighting, drawLog: &log},
		&stubSystem{name: "fog", layer: LayerAtmosphereNear, drawLog: &log},
		&stubSystem{name: "rain", layer: LayerWeather, drawLog: &log},
		&stubSystem{name: "stars", layer: LayerStarfield, drawLog: &log},
		&stubSystem{name: "deep", layer: LayerBackground, drawLog: &log},
	}
	m := newStubManager(t, systems...)

	if err := m.Render(RenderTarget{}, Camera{Dist: 1}, Vec2{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{"deep", "stars", "rain", "fog", "glow"}
	if len(log) != len(want) {
		t.Fatalf("drew %d systems, want %d: %v", len(log), len(want), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("draw order %v, want %v", log, want)
		}
	}
}

func TestMultiLayerSystemDrawsInEachPass(t *testing.T) {
	var log []string
	dust := &stubDust{stubSystem: stubSystem{name: "dust", layer: LayerAtmosphereFar, drawLog: &log}}
	m := newStubManager(t,
		&stubSystem{name: "rain", layer: LayerWeather, drawLog: &log},
		dust,
	)

	if err := m.Render(RenderTarget{}, Camera{Dist: 1}, Vec2{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{"dust", "rain", "dust"}
	if len(log) != len(want) {
		t.Fatalf("draw log %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("draw log %v, want %v", log, want)
		}
	}
}

// stubDust draws in both atmosphere passes.
type stubDust struct {
	stubSystem
}

func (s *stubDust) Layers() []Layer {
	return []Layer{LayerAtmosphereFar, LayerAtmosphereNear}
}

func TestTotalElementsTracksEnabledSystems(t *testing.T) {
	a := &stubSystem{name: "a", layer: LayerBackground, elements: 1}
	b := &stubSystem{name: "b", layer: LayerWeather, elements: 2}
	c := &stubSystem{name: "c", layer: LayerInteractive, elements: 3}
	m := newStubManager(t, a, b, c)

	stepFrame(t, m)
	if got := m.GetStatistics().Performance.TotalElements; got != 6 {
		t.Fatalf("TotalElements = %d, want 6", got)
	}
	if got := m.GetStatistics().Performance.ActiveSystems; got != 3 {
		t.Fatalf("ActiveSystems = %d, want 3", got)
	}

	if !m.EnableSystem("b", false) {
		t.Fatal("EnableSystem rejected a known name")
	}
	stepFrame(t, m)
	if got := m.GetStatistics().Performance.TotalElements; got != 4 {
		t.Fatalf("TotalElements after disable = %d, want 4", got)
	}
	if b.updates != 1 {
		t.Fatalf("disabled system kept updating: %d", b.updates)
	}

	if m.EnableSystem("nope", true) {
		t.Fatal("EnableSystem accepted an unknown name")
	}
}

func TestReenableRestoresWithoutReinit(t *testing.T) {
	sys := &stubSystem{name: "zones", layer: LayerHazards, elements: 2}
	m := newStubManager(t, sys)

	m.EnableSystem("zones", false)
	stepFrame(t, m)
	m.EnableSystem("zones", true)
	stepFrame(t, m)

	if sys.inits != 1 {
		t.Fatalf("re-enable reinitialized the system: inits = %d", sys.inits)
	}
	if sys.updates != 1 {
		t.Fatalf("updates = %d, want 1 from the frame after re-enable", sys.updates)
	}
	if got := m.GetStatistics().Performance.TotalElements; got != 2 {
		t.Fatalf("TotalElements = %d, want 2", got)
	}
}

func TestEverySubscriberSeesEachEventOnce(t *testing.T) {
	sys := &stubSystem{name: "sky", layer: LayerWeather}
	sys.pending = []Event{
		{Type: EventStormApproaching, Intensity: 0.5},
		{Type: EventFlareDetected, Intensity: 0.2},
	}
	m := newStubManager(t, sys)

	var first, second []Event
	m.Subscribe(func(ev Event) { first = append(first, ev) })
	m.Subscribe(func(ev Event) { second = append(second, ev) })

	stepFrame(t, m)

	for name, got := range map[string][]Event{"first": first, "second": second} {
		if len(got) != 2 {
			t.Fatalf("%s subscriber saw %d events, want 2", name, len(got))
		}
	}
	if first[0].Type != EventStormApproaching || first[1].Type != EventFlareDetected {
		t.Fatalf("delivery order changed: %+v", first)
	}
}

func TestSevereImpactCoarsensNextFrame(t *testing.T) {
	hog := &stubSystem{name: "hog", layer: LayerWeather, severity: 0.9}
	m := newStubManager(t, hog)

	stepFrame(t, m)
	before := m.CurrentLOD()
	stepFrame(t, m)
	after := m.CurrentLOD()

	if after >= before {
		t.Fatalf("LOD %v -> %v, want strictly coarser", before, after)
	}
}

func TestMildImpactLeavesLODAlone(t *testing.T) {
	sys := &stubSystem{name: "ok", layer: LayerWeather, severity: 0.5}
	m := newStubManager(t, sys)

	stepFrame(t, m)
	before := m.CurrentLOD()
	stepFrame(t, m)
	if after := m.CurrentLOD(); after != before {
		t.Fatalf("LOD %v -> %v, want unchanged", before, after)
	}
}

func TestUnknownEventNeverReachesSubscribers(t *testing.T) {
	sys := &stubSystem{name: "odd", layer: LayerWeather}
	sys.pending = []Event{
		{Type: EventType("solar_eclipse")},
		{Type: EventFlareDetected, Intensity: 0.8},
	}
	m := newStubManager(t, sys)

	var got []Event
	m.Subscribe(func(ev Event) { got = append(got, ev) })

	stepFrame(t, m)
	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1: %+v", len(got), got)
	}
	if got[0].Type != EventFlareDetected {
		t.Fatalf("delivered %q, want %q", got[0].Type, EventFlareDetected)
	}
}

func TestHazardContainmentTracking(t *testing.T) {
	sys := &stubSystem{name: "zones", layer: LayerHazards}
	m := newStubManager(t, sys)

	if _, in := m.CurrentHazard(); in {
		t.Fatal("player starts inside a hazard")
	}

	sys.pending = []Event{{Type: EventHazardEntered, X: 10, Y: 10, Intensity: 0.7}}
	stepFrame(t, m)
	ev, in := m.CurrentHazard()
	if !in {
		t.Fatal("hazard entry not tracked")
	}
	if ev.Intensity != 0.7 {
		t.Fatalf("tracked hazard intensity = %v, want 0.7", ev.Intensity)
	}

	sys.pending = []Event{{Type: EventHazardExited, X: 10, Y: 10}}
	stepFrame(t, m)
	if _, in := m.CurrentHazard(); in {
		t.Fatal("hazard exit not tracked")
	}
}

func TestStormWarningTracking(t *testing.T) {
	sys := &stubSystem{name: "sky", layer: LayerWeather}
	m := newStubManager(t, sys)

	sys.pending = []Event{{Type: EventStormApproaching, Intensity: 0.9, Duration: 20}}
	stepFrame(t, m)
	if _, warned := m.StormWarning(); !warned {
		t.Fatal("storm warning not tracked")
	}

	sys.pending = []Event{{Type: EventStormCleared}}
	stepFrame(t, m)
	if _, warned := m.StormWarning(); warned {
		t.Fatal("storm clear not tracked")
	}
}

func TestQualityChangeReachesEverySystemOnce(t *testing.T) {
	a := &stubSystem{name: "a", layer: LayerBackground}
	b := &stubSystem{name: "b", layer: LayerWeather}
	m := newStubManager(t, a, b)

	m.SetQualityLevel(QualityUltra)

	for _, s := range []*stubSystem{a, b} {
		n := 0
		for _, q := range s.quals {
			if q == QualityUltra {
				n++
			}
		}
		if n != 1 {
			t.Errorf("system %s saw quality change %d times, want 1", s.name, n)
		}
	}
}

func TestLightingOutputVisibleSameFrame(t *testing.T) {
	// The sampling reader registers before the light source; only the
	// lighting-first update pass can explain it seeing the new value.
	reader := &stubSystem{name: "reader", layer: LayerStarfield}
	light := &stubLight{
		stubSystem: stubSystem{name: "light", layer: LayerLighting},
		out:        AmbientLight{Level: 0.7},
	}
	m := newStubManager(t, reader, light)

	stepFrame(t, m)
	if len(reader.seenAmbient) != 1 {
		t.Fatalf("reader updated %d times, want 1", len(reader.seenAmbient))
	}
	if got := reader.seenAmbient[0].Level; got != 0.7 {
		t.Fatalf("reader saw ambient %v, want 0.7", got)
	}
	if got := m.Ambient().Level; got != 0.7 {
		t.Fatalf("manager ambient %v, want 0.7", got)
	}
}

func TestInactiveSystemsStillPolledForEvents(t *testing.T) {
	sys := &stubSystem{name: "zones", layer: LayerHazards}
	m := newStubManager(t, sys)

	m.EnableSystem("zones", false)
	sys.pending = []Event{{Type: EventHazardExited}}

	var got []Event
	m.Subscribe(func(ev Event) { got = append(got, ev) })
	stepFrame(t, m)

	if len(got) != 1 || got[0].Type != EventHazardExited {
		t.Fatalf("events from inactive system = %+v, want the pending exit", got)
	}
	if sys.updates != 0 {
		t.Fatalf("inactive system updated %d times", sys.updates)
	}
}

func TestVisibilityToggleSkipsRenderOnly(t *testing.T) {
	var log []string
	sys := &stubSystem{name: "stars", layer: LayerStarfield, drawLog: &log}
	m := newStubManager(t, sys)

	if !m.SetSystemVisible("stars", false) {
		t.Fatal("SetSystemVisible rejected a known name")
	}
	stepFrame(t, m)
	if err := m.Render(RenderTarget{}, Camera{Dist: 1}, Vec2{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if len(log) != 0 {
		t.Fatalf("hidden system drew: %v", log)
	}
	if sys.updates != 1 {
		t.Fatalf("hidden system updates = %d, want 1", sys.updates)
	}
}

func TestCloseIsIdempotentAndBlocksFrames(t *testing.T) {
	sys := &stubSystem{name: "a", layer: LayerBackground}
	m := newStubManager(t, sys)

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if sys.closes != 1 {
		t.Fatalf("system closed %d times, want 1", sys.closes)
	}

	if err := m.Update(testDelta, Camera{Dist: 1}, Vec2{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Update after Close = %v, want ErrClosed", err)
	}
	if err := m.Render(RenderTarget{}, Camera{Dist: 1}, Vec2{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Render after Close = %v, want ErrClosed", err)
	}
}

func TestGetSystemTypeMismatch(t *testing.T) {
	m := newStubManager(t, &stubSystem{name: "a", layer: LayerBackground})

	if _, ok := GetSystem[*stubSystem](m, "a"); !ok {
		t.Fatal("GetSystem missed a registered system")
	}
	if _, ok := GetSystem[*Lighting](m, "a"); ok {
		t.Fatal("GetSystem matched the wrong concrete type")
	}
	if _, ok := GetSystem[*stubSystem](m, "missing"); ok {
		t.Fatal("GetSystem matched an unknown name")
	}
}

func TestUpdateErrorNamesSystem(t *testing.T) {
	bad := &stubSystem{name: "flaky", layer: LayerWeather, updErr: errors.New("torn buffer")}
	m := newStubManager(t, bad)

	err := m.Update(testDelta, Camera{Dist: 1}, Vec2{})
	if err == nil {
		t.Fatal("expected update error to propagate")
	}
}

func TestStatisticsSnapshotIsDetached(t *testing.T) {
	m := newStubManager(t, &stubSystem{name: "a", layer: LayerBackground, elements: 2})
	stepFrame(t, m)

	snap := m.GetStatistics()
	snap.Systems["a"] = SystemStats{Elements: 99}

	if got := m.GetStatistics().Systems["a"].Elements; got != 2 {
		t.Fatalf("snapshot mutation leaked into manager: %d", got)
	}
}
