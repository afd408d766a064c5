package env

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/draw"
)

// Registry names of the built-in systems.
const (
	SystemStarfield   = "starfield"
	SystemWeather     = "weather"
	SystemHazards     = "hazards"
	SystemBackground  = "background"
	SystemAtmosphere  = "atmosphere"
	SystemInteractive = "interactive"
	SystemLighting    = "lighting"
)

// ErrClosed is returned by Update and Render after Close.
var ErrClosed = errors.New("environment manager closed")

// RenderTarget is the drawing surface a frame is composed onto.
type RenderTarget struct {
	Canvas *draw.Canvas
	Writer io.Writer
}

// entry pairs a registered system with the orchestrator-owned flags. The
// flags are toggled without touching system internals, so re-enabling a
// system never re-initializes it.
type entry struct {
	sys     System
	active  bool // Participates in update and render
	visible bool // Participates in render only
}

// Manager owns the registry of environmental systems and drives their
// per-frame lifecycle: update in registration order with lighting first,
// render in the fixed layer order, event dispatch, statistics aggregation
// and reactive detail adaptation. It is single-threaded by contract: Update
// and Render are called from the game loop, never concurrently.
type Manager struct {
	log   *zap.Logger
	cfg   Settings
	world Bounds

	perf *PerfMonitor
	lod  *LODManager

	order   []string
	entries map[string]*entry

	subscribers []func(Event)

	level   LODLevel
	ambient AmbientLight
	stats   Statistics
	preset  Preset
	closed  bool

	hazardEv    Event
	hazardDepth int
	stormEv     Event
	stormNear   bool
}

// New constructs a manager with the seven built-in systems configured from
// the bundle, initializes each one and applies the per-system enable flags.
// Any initialization error is fatal: already-initialized systems are
// disposed and the error is returned.
func New(cfg Settings, world Bounds, log *zap.Logger) (*Manager, error) {
	m, err := NewWithSystems(cfg, world, log,
		NewBackground(cfg.Background, world),
		NewStarfield(cfg.Starfield, world),
		NewAtmosphere(cfg.Atmosphere, world),
		NewHazardField(cfg.Hazards, world),
		NewWeather(cfg.Weather, world),
		NewInteractiveField(cfg.Interactive, world),
		NewLighting(cfg.Lighting),
	)
	if err != nil {
		return nil, err
	}

	m.EnableSystem(SystemBackground, cfg.Background.Enabled)
	m.EnableSystem(SystemStarfield, cfg.Starfield.Enabled)
	m.EnableSystem(SystemAtmosphere, cfg.Atmosphere.Enabled)
	m.EnableSystem(SystemHazards, cfg.Hazards.Enabled)
	m.EnableSystem(SystemWeather, cfg.Weather.Enabled)
	m.EnableSystem(SystemInteractive, cfg.Interactive.Enabled)
	m.EnableSystem(SystemLighting, cfg.Lighting.Enabled)
	return m, nil
}

// NewWithSystems constructs a manager around the given systems. All systems
// are registered first, then initialized in registration order; a failure
// disposes the systems initialized so far and returns the error, leaving no
// partially-initialized manager behind.
func NewWithSystems(cfg Settings, world Bounds, log *zap.Logger, systems ...System) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("environment settings: %w", err)
	}

	m := &Manager{
		log:     log,
		cfg:     cfg,
		world:   world,
		perf:    NewPerfMonitor(cfg.Budget.TargetFPS),
		lod:     NewLODManager(cfg.LOD, cfg.Quality),
		entries: make(map[string]*entry, len(systems)),
	}
	m.level = m.lod.Level(Camera{Dist: 1}, cfg.Budget.TargetFPS)
	m.stats.Systems = make(map[string]SystemStats, len(systems))

	for _, sys := range systems {
		name := sys.Name()
		if _, dup := m.entries[name]; dup {
			return nil, fmt.Errorf("duplicate environment system %q", name)
		}
		m.entries[name] = &entry{sys: sys, active: true, visible: true}
		m.order = append(m.order, name)
	}

	for i, name := range m.order {
		sys := m.entries[name].sys
		if err := sys.Initialize(); err != nil {
			log.Error("environment system failed to initialize",
				zap.String("system", name), zap.Error(err))
			m.dispose(m.order[:i])
			return nil, fmt.Errorf("initialize %s: %w", name, err)
		}
		sys.SetQuality(cfg.Quality)
		sys.UpdateLOD(m.level)
	}

	log.Info("environment ready",
		zap.Int("systems", len(m.order)),
		zap.String("quality", cfg.Quality.String()),
		zap.String("lod", m.level.String()))
	return m, nil
}

// Subscribe registers an external listener. Every event a system raises is
// delivered to every subscriber synchronously, in subscription order, after
// the manager's own dispatch, within the same Update call.
func (m *Manager) Subscribe(fn func(Event)) {
	if fn != nil {
		m.subscribers = append(m.subscribers, fn)
	}
}

// Update advances the whole environment by delta. Lighting updates first so
// the other systems can sample its ambient output; the remaining systems
// update in registration order. Events are polled from every system, active
// or not, dispatched internally and broadcast to subscribers.
func (m *Manager) Update(delta time.Duration, cam Camera, player Vec2) error {
	if m.closed {
		return ErrClosed
	}
	start := time.Now()

	m.perf.Frame(delta)
	fps := m.perf.CurrentFPS()
	m.lod.Observe(fps)
	m.level = m.lod.Level(cam, fps)

	ctx := UpdateContext{
		Delta:     delta,
		Camera:    cam,
		Player:    player,
		World:     m.world,
		Impacts:   m,
		Allowance: m.updateAllowance(),
	}

	var totalElements, activeCount int

	// Lighting first: its output feeds every later update this frame.
	for _, name := range m.order {
		e := m.entries[name]
		if e.sys.Layer() != LayerLighting {
			continue
		}
		if e.active {
			st, err := m.updateSystem(name, e.sys, ctx)
			if err != nil {
				return err
			}
			totalElements += st.Elements
			activeCount++
		}
		if src, ok := e.sys.(AmbientSource); ok {
			m.ambient = src.Ambient()
		}
	}
	ctx.Ambient = m.ambient

	for _, name := range m.order {
		e := m.entries[name]
		if e.sys.Layer() == LayerLighting || !e.active {
			continue
		}
		st, err := m.updateSystem(name, e.sys, ctx)
		if err != nil {
			return err
		}
		totalElements += st.Elements
		activeCount++
	}

	// Poll everyone for events: inactive systems may still need to clear
	// theirs (e.g. a hazard exit raised right before deactivation).
	for _, name := range m.order {
		for _, ev := range m.entries[name].sys.Events(player.X, player.Y) {
			m.dispatchEvent(ev)
		}
	}

	m.stats.Performance = PerformanceStats{
		FPS:           fps,
		UpdateMillis:  millisSince(start),
		RenderMillis:  m.stats.Performance.RenderMillis,
		TotalElements: totalElements,
		ActiveSystems: activeCount,
		MemoryBytes:   m.perf.MemoryEstimate(),
		LOD:           m.level,
	}
	m.stats.Preset = m.preset
	return nil
}

// updateSystem pushes the frame's LOD, runs one system update and records
// its timing and element count.
func (m *Manager) updateSystem(name string, sys System, ctx UpdateContext) (SystemStats, error) {
	sys.UpdateLOD(m.level)

	t0 := time.Now()
	if err := sys.Update(ctx); err != nil {
		return SystemStats{}, fmt.Errorf("update %s: %w", name, err)
	}

	st := sys.Stats()
	st.UpdateMillis = millisSince(t0)
	st.RenderMillis = 0
	m.stats.Systems[name] = st
	return st, nil
}

// Render composes every active, visible system onto the target in the fixed
// layer order: background, starfield, far atmosphere, hazards, weather,
// interactive, near atmosphere, lighting. The order is a hard invariant;
// registration order never affects it.
func (m *Manager) Render(dst RenderTarget, cam Camera, player Vec2) error {
	if m.closed {
		return ErrClosed
	}
	start := time.Now()

	view := Bounds{}
	if dst.Canvas != nil {
		view = Bounds{Width: dst.Canvas.LogicalWidth(), Height: dst.Canvas.LogicalHeight()}
	}

	ctx := RenderContext{
		Canvas:  dst.Canvas,
		Writer:  dst.Writer,
		Camera:  cam,
		Player:  player,
		View:    view,
		World:   m.world,
		Ambient: m.ambient,
	}

	for _, layer := range renderOrder {
		for _, name := range m.order {
			e := m.entries[name]
			if !e.active || !e.visible || !drawsIn(e.sys, layer) {
				continue
			}
			ctx.Layer = layer

			t0 := time.Now()
			if err := e.sys.Render(ctx); err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			st := m.stats.Systems[name]
			st.RenderMillis += millisSince(t0)
			m.stats.Systems[name] = st
		}
	}

	m.stats.Performance.RenderMillis = millisSince(start)
	return nil
}

// drawsIn reports whether a system draws in the given layer pass.
func drawsIn(sys System, layer Layer) bool {
	if ml, ok := sys.(MultiLayer); ok {
		for _, l := range ml.Layers() {
			if l == layer {
				return true
			}
		}
		return false
	}
	return sys.Layer() == layer
}

// GetStatistics returns the aggregate snapshot recomputed by the last
// Update/Render pair. The returned value is a copy.
func (m *Manager) GetStatistics() Statistics {
	return m.stats.clone()
}

// CurrentLOD returns the detail level chosen for the last frame.
func (m *Manager) CurrentLOD() LODLevel {
	return m.level
}

// Ambient returns the lighting output sampled during the last Update.
func (m *Manager) Ambient() AmbientLight {
	return m.ambient
}

// Systems returns the registered system names in registration order.
func (m *Manager) Systems() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// CurrentHazard returns the hazard the player is inside, if any. With
// overlapping zones it reports the most recently entered one.
func (m *Manager) CurrentHazard() (Event, bool) {
	return m.hazardEv, m.hazardDepth > 0
}

// StormWarning returns the approaching storm, if one was announced and has
// not cleared yet.
func (m *Manager) StormWarning() (Event, bool) {
	return m.stormEv, m.stormNear
}

// SetQualityLevel fans the new tier out to the LOD policy and to every
// registered system exactly once. Takes effect on the next Update.
func (m *Manager) SetQualityLevel(q Quality) {
	m.lod.SetQualityLevel(q)
	for _, name := range m.order {
		m.entries[name].sys.SetQuality(q)
	}
	m.log.Info("environment quality changed", zap.String("quality", q.String()))
}

// EnableSystem toggles a system's participation in update and render
// without reinitializing it. Returns false for unknown names.
func (m *Manager) EnableSystem(name string, enabled bool) bool {
	e, ok := m.entries[name]
	if !ok {
		m.log.Debug("enable request for unknown system", zap.String("system", name))
		return false
	}
	e.active = enabled
	return true
}

// SetSystemVisible toggles rendering only; the system keeps updating.
// Returns false for unknown names.
func (m *Manager) SetSystemVisible(name string, visible bool) bool {
	e, ok := m.entries[name]
	if !ok {
		return false
	}
	e.visible = visible
	return true
}

// GetSystem returns the named system if it is registered and of type T.
func GetSystem[T System](m *Manager, name string) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	e, ok := m.entries[name]
	if !ok {
		return zero, false
	}
	t, ok := e.sys.(T)
	return t, ok
}

// Report implements ImpactSink. Reports flow into the performance monitor;
// severity at or above the threshold reduces the LOD for the next frame.
func (m *Manager) Report(im Impact) {
	m.perf.Report(im)
	if im.Severity >= SeverityThreshold {
		m.lod.Reduce()
		m.log.Warn("environment system over budget, reducing detail",
			zap.String("system", im.System),
			zap.Float64("severity", im.Severity),
			zap.Int("reduction", m.lod.Reduction()))
	}
}

// CreateCosmicEvent triggers a one-shot dramatic occurrence, translated
// into calls on the relevant systems. Unknown types log and do nothing.
func (m *Manager) CreateCosmicEvent(ev CosmicEvent, pos Vec2, intensity float64) {
	switch ev {
	case CosmicSupernova:
		if l, ok := GetSystem[*Lighting](m, SystemLighting); ok {
			l.Flash(pos, intensity)
		}
		if w, ok := GetSystem[*Weather](m, SystemWeather); ok {
			w.Shockwave(pos, intensity)
		}
		if b, ok := GetSystem[*Background](m, SystemBackground); ok {
			b.AddRemnant(pos, intensity)
		}
	case CosmicPulsar:
		if l, ok := GetSystem[*Lighting](m, SystemLighting); ok {
			l.StartPulse(pos, intensity)
		}
	case CosmicWormholeOpen:
		if h, ok := GetSystem[*HazardField](m, SystemHazards); ok {
			h.SpawnWell(pos, intensity)
		}
		if l, ok := GetSystem[*Lighting](m, SystemLighting); ok {
			l.Flash(pos, intensity*0.6)
		}
	case CosmicAsteroidStorm:
		if w, ok := GetSystem[*Weather](m, SystemWeather); ok {
			w.StartMeteorShower(intensity)
		}
		if f, ok := GetSystem[*InteractiveField](m, SystemInteractive); ok {
			f.ScatterSalvage(pos, intensity)
		}
	case CosmicEnergyStorm:
		if w, ok := GetSystem[*Weather](m, SystemWeather); ok {
			w.StartIonStorm(intensity)
		}
		if l, ok := GetSystem[*Lighting](m, SystemLighting); ok {
			l.Surge(intensity * 0.4)
		}
	default:
		m.log.Warn("unknown cosmic event", zap.String("event", string(ev)))
		return
	}

	m.log.Info("cosmic event",
		zap.String("event", string(ev)),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Float64("intensity", intensity))
}

// ApplyPreset bulk-configures the systems to a named environment archetype.
// Unknown presets log and do nothing.
func (m *Manager) ApplyPreset(p Preset) {
	starfield, _ := GetSystem[*Starfield](m, SystemStarfield)
	weather, _ := GetSystem[*Weather](m, SystemWeather)
	hazards, _ := GetSystem[*HazardField](m, SystemHazards)
	background, _ := GetSystem[*Background](m, SystemBackground)
	atmosphere, _ := GetSystem[*Atmosphere](m, SystemAtmosphere)
	interactive, _ := GetSystem[*InteractiveField](m, SystemInteractive)
	lighting, _ := GetSystem[*Lighting](m, SystemLighting)

	if starfield == nil || weather == nil || hazards == nil || background == nil ||
		atmosphere == nil || interactive == nil || lighting == nil {
		m.log.Warn("environment preset needs the built-in systems",
			zap.String("preset", string(p)))
		return
	}

	switch p {
	case PresetDeepSpace:
		background.SetScene("void", 1)
		starfield.SetDensityScale(0.8)
		atmosphere.SetDensityScale(0.5)
		hazards.Compose(1, 1, 0)
		weather.SetActivityScale(0.6)
		interactive.SetAbundanceScale(0.7)
		lighting.SetAmbientLevel(0.3)
	case PresetNebula:
		background.SetScene("orchid", 5)
		starfield.SetDensityScale(0.9)
		atmosphere.SetDensityScale(1.6)
		hazards.Compose(1, 2, 0)
		weather.SetActivityScale(1.2)
		interactive.SetAbundanceScale(1.0)
		lighting.SetAmbientLevel(0.45)
	case PresetAsteroidField:
		background.SetScene("rust", 2)
		starfield.SetDensityScale(1.0)
		atmosphere.SetDensityScale(0.8)
		hazards.Compose(1, 1, 3)
		weather.SetActivityScale(1.0)
		interactive.SetAbundanceScale(1.5)
		lighting.SetAmbientLevel(0.32)
	case PresetPlanetarySystem:
		background.SetScene("aurora", 3)
		starfield.SetDensityScale(1.1)
		atmosphere.SetDensityScale(1.0)
		hazards.Compose(2, 1, 1)
		weather.SetActivityScale(0.8)
		interactive.SetAbundanceScale(1.2)
		lighting.SetAmbientLevel(0.5)
	case PresetGalacticCore:
		background.SetScene("ember", 6)
		starfield.SetDensityScale(1.6)
		atmosphere.SetDensityScale(1.2)
		hazards.Compose(3, 2, 1)
		weather.SetActivityScale(1.5)
		interactive.SetAbundanceScale(1.0)
		lighting.SetAmbientLevel(0.6)
	default:
		m.log.Warn("unknown environment preset", zap.String("preset", string(p)))
		return
	}

	m.preset = p
	m.log.Info("environment preset applied", zap.String("preset", string(p)))
}

// Close disposes every system in registration order. Individual failures
// are logged so one system's teardown cannot block the others. After Close,
// Update and Render return ErrClosed.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.dispose(m.order)
	return nil
}

// dispose closes the named systems in order, logging failures.
func (m *Manager) dispose(names []string) {
	for _, name := range names {
		if err := m.entries[name].sys.Close(); err != nil {
			m.log.Warn("environment system close failed",
				zap.String("system", name), zap.Error(err))
		}
	}
}

// dispatchEvent runs the manager's own handler for one event, then
// broadcasts it to the subscribers. The handler is total over the known
// event set; unknown types are dropped with a log line and never reach
// subscribers.
func (m *Manager) dispatchEvent(ev Event) {
	switch ev.Type {
	case EventHazardEntered:
		m.hazardDepth++
		m.hazardEv = ev
		m.log.Debug("player entered hazard",
			zap.Float64("x", ev.X), zap.Float64("y", ev.Y),
			zap.Float64("intensity", ev.Intensity))
	case EventHazardExited:
		if m.hazardDepth > 0 {
			m.hazardDepth--
		}
	case EventStormApproaching:
		m.stormNear = true
		m.stormEv = ev
	case EventStormCleared:
		m.stormNear = false
	case EventFlareDetected:
		// A flare brightens the whole scene for a moment.
		if l, ok := GetSystem[*Lighting](m, SystemLighting); ok {
			l.Surge(ev.Intensity * 0.3)
		}
	case EventRayBurst:
		// Observed only; gameplay reacts through subscribers.
	case EventInteractiveNearby:
		// Observed only.
	case EventLightingShift:
		// Observed only.
	default:
		m.log.Warn("unknown environmental event", zap.String("type", string(ev.Type)))
		return
	}

	for _, fn := range m.subscribers {
		fn(ev)
	}
}

// updateAllowance splits the update budget across the active systems, for
// impact severity scaling.
func (m *Manager) updateAllowance() float64 {
	active := 0
	for _, name := range m.order {
		if m.entries[name].active {
			active++
		}
	}
	if active == 0 {
		return m.cfg.Budget.MaxUpdateMillis
	}
	return m.cfg.Budget.MaxUpdateMillis / float64(active)
}

// millisSince returns elapsed wall time in milliseconds.
func millisSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
