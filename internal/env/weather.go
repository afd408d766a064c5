package env

import (
	"math"
	"math/rand"
	"time"
)

type weatherPhase int

const (
	phaseCalm weatherPhase = iota
	phaseFront
	phaseStorm
	phaseClearing
)

type stormKind int

const (
	stormMeteor stormKind = iota
	stormIon
)

func (k stormKind) String() string {
	if k == stormIon {
		return "ion"
	}
	return "meteor"
}

// weatherParticle is one streak or spark. Life is seconds remaining.
type weatherParticle struct {
	x, y   float64
	vx, vy float64
	life   float64
	ch     rune
	fg     uint8
}

// Weather runs the storm cycle: long calm stretches broken by a front
// that announces itself, builds into a meteor or ion storm, then clears.
// Fronts can also be forced directly by cosmic events.
type Weather struct {
	cfg   WeatherSettings
	world Bounds

	phase     weatherPhase
	kind      stormKind
	phaseLeft float64
	target    float64
	intensity float64

	particles []weatherParticle
	pending   []Event
	activity  float64
	clock     float64

	quality Quality
	lod     LODLevel
}

// NewWeather builds the weather system from its settings section.
func NewWeather(cfg WeatherSettings, world Bounds) *Weather {
	return &Weather{
		cfg:      cfg,
		world:    world,
		activity: 1,
		quality:  QualityMedium,
		lod:      LODMedium,
	}
}

func (w *Weather) Name() string { return SystemWeather }

func (w *Weather) Layer() Layer { return LayerWeather }

func (w *Weather) Initialize() error { return nil }

func (w *Weather) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()
	w.clock += dt

	w.advancePhase(dt)
	w.spawnParticles()
	w.moveParticles(dt)

	reportImpact(ctx, SystemWeather, start, len(w.particles), int64(cap(w.particles))*56)
	return nil
}

// advancePhase steps the storm cycle and raises the phase-change events.
func (w *Weather) advancePhase(dt float64) {
	switch w.phase {
	case phaseCalm:
		w.intensity = 0
		if rand.Float64() < w.cfg.StormChance*dt*w.activity {
			w.beginFront(0.4+rand.Float64()*0.6, stormKind(rand.Intn(2)))
		}

	case phaseFront:
		w.phaseLeft -= dt
		w.intensity = w.target * (1 - w.phaseLeft/w.cfg.FrontSecs)
		if w.phaseLeft <= 0 {
			w.phase = phaseStorm
			w.phaseLeft = w.cfg.StormSecs * (0.7 + rand.Float64()*0.6)
		}

	case phaseStorm:
		w.phaseLeft -= dt
		w.intensity = w.target * (0.9 + 0.1*math.Sin(w.clock*3))
		w.rollBursts(dt)
		if w.phaseLeft <= 0 {
			w.phase = phaseClearing
			w.phaseLeft = w.cfg.FrontSecs * 0.5
		}

	case phaseClearing:
		w.phaseLeft -= dt
		w.intensity = w.target * math.Max(0, w.phaseLeft/(w.cfg.FrontSecs*0.5))
		if w.phaseLeft <= 0 {
			w.phase = phaseCalm
			w.intensity = 0
			w.pending = append(w.pending, Event{Type: EventStormCleared})
		}
	}
}

// beginFront starts the warning phase of a storm and announces it.
func (w *Weather) beginFront(target float64, kind stormKind) {
	w.phase = phaseFront
	w.kind = kind
	w.target = math.Min(target, 1)
	w.phaseLeft = w.cfg.FrontSecs
	w.pending = append(w.pending, Event{
		Type:      EventStormApproaching,
		Intensity: w.target,
		Duration:  w.cfg.FrontSecs + w.cfg.StormSecs,
		Params:    map[string]float64{"kind": float64(kind)},
	})
}

// rollBursts occasionally raises the in-storm hazard events: flares
// during ion storms, radiation ray bursts during meteor storms.
func (w *Weather) rollBursts(dt float64) {
	if rand.Float64() >= 0.08*dt*w.intensity*10 {
		return
	}
	if w.kind == stormIon {
		w.pending = append(w.pending, Event{
			Type:      EventFlareDetected,
			Intensity: 0.5 + rand.Float64()*0.5,
			Duration:  1.5 + rand.Float64()*1.5,
		})
	} else {
		w.pending = append(w.pending, Event{
			Type:      EventRayBurst,
			Intensity: 0.3 + rand.Float64()*0.5,
			Duration:  0.5 + rand.Float64()*0.5,
		})
	}
}

// spawnParticles tops the population up toward the intensity-driven
// target, a few per frame so storms build rather than pop in.
func (w *Weather) spawnParticles() {
	targetPop := int(w.intensity * float64(w.cfg.MaxParticles) * w.quality.Factor() * w.lod.Factor())
	for n := 0; len(w.particles) < targetPop && n < 6; n++ {
		if w.kind == stormIon {
			w.particles = append(w.particles, w.spawnSpark())
		} else {
			w.particles = append(w.particles, w.spawnMeteor())
		}
	}
}

func (w *Weather) spawnMeteor() weatherParticle {
	vx := 20 + rand.Float64()*30
	ch := '\\'
	if rand.Intn(2) == 0 {
		vx = -vx
		ch = '/'
	}
	return weatherParticle{
		x:    rand.Float64() * w.world.Width,
		y:    -2,
		vx:   vx,
		vy:   8 + rand.Float64()*12,
		life: 1.5 + rand.Float64()*1.5,
		ch:   ch,
		fg:   meteorShade(),
	}
}

func meteorShade() uint8 {
	if rand.Intn(3) == 0 {
		return 230
	}
	return 223
}

func (w *Weather) spawnSpark() weatherParticle {
	dir := rand.Float64() * 2 * math.Pi
	speed := 2 + rand.Float64()*4
	ch, fg := '+', uint8(51)
	if rand.Intn(3) == 0 {
		ch, fg = '*', 123
	}
	return weatherParticle{
		x:    rand.Float64() * w.world.Width,
		y:    rand.Float64() * w.world.Height,
		vx:   math.Cos(dir) * speed,
		vy:   math.Sin(dir) * speed,
		life: 0.8 + rand.Float64()*0.8,
		ch:   ch,
		fg:   fg,
	}
}

func (w *Weather) moveParticles(dt float64) {
	kept := w.particles[:0]
	for _, p := range w.particles {
		p.life -= dt
		if p.life <= 0 {
			continue
		}
		p.x += p.vx * dt
		p.y += p.vy * dt
		kept = append(kept, p)
	}
	w.particles = kept
}

func (w *Weather) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}
	for _, p := range w.particles {
		ctx.Canvas.SetCellFloat(p.x-ctx.Camera.X, p.y-ctx.Camera.Y, p.ch, p.fg)
	}
	return nil
}

// Shockwave blasts a radial burst of debris out from a point and raises
// a ray burst. The aftermath of a supernova.
func (w *Weather) Shockwave(origin Vec2, intensity float64) {
	if intensity <= 0 {
		return
	}
	in := math.Min(intensity, 1)
	n := 8 + int(24*in)
	for i := 0; i < n; i++ {
		dir := rand.Float64() * 2 * math.Pi
		speed := 30 + rand.Float64()*20
		w.particles = append(w.particles, weatherParticle{
			x:    origin.X,
			y:    origin.Y,
			vx:   math.Cos(dir) * speed,
			vy:   math.Sin(dir) * speed * 0.6,
			life: 0.6 + rand.Float64()*0.4,
			ch:   '·',
			fg:   230,
		})
	}
	w.pending = append(w.pending, Event{
		Type:      EventRayBurst,
		X:         origin.X,
		Y:         origin.Y,
		Intensity: in,
		Duration:  2,
	})
}

// StartMeteorShower forces a meteor storm, skipping the front phase.
func (w *Weather) StartMeteorShower(intensity float64) {
	w.forceStorm(stormMeteor, intensity)
}

// StartIonStorm forces an ion storm, skipping the front phase.
func (w *Weather) StartIonStorm(intensity float64) {
	w.forceStorm(stormIon, intensity)
}

func (w *Weather) forceStorm(kind stormKind, intensity float64) {
	in := math.Min(math.Max(intensity, 0.1), 1)
	w.kind = kind
	w.target = math.Min(1, 0.5+0.5*in)
	w.phase = phaseStorm
	w.phaseLeft = w.cfg.StormSecs * (0.6 + 0.4*in)
	w.intensity = w.target * 0.6
	w.pending = append(w.pending, Event{
		Type:      EventStormApproaching,
		Intensity: w.target,
		Duration:  w.phaseLeft,
		Params:    map[string]float64{"kind": float64(kind)},
	})
}

// SetActivityScale adjusts how often fronts form. Used by the presets.
func (w *Weather) SetActivityScale(scale float64) {
	w.activity = math.Max(0.1, math.Min(3, scale))
}

// Intensity returns the current storm strength, zero when calm.
func (w *Weather) Intensity() float64 { return w.intensity }

func (w *Weather) UpdateLOD(level LODLevel) { w.lod = level }

func (w *Weather) SetQuality(q Quality) { w.quality = q }

func (w *Weather) Events(px, py float64) []Event {
	if len(w.pending) == 0 {
		return nil
	}
	out := w.pending
	w.pending = nil
	return out
}

func (w *Weather) Stats() SystemStats {
	return SystemStats{Elements: len(w.particles)}
}

func (w *Weather) Close() error {
	w.particles = nil
	w.pending = nil
	return nil
}
