package env

import (
	"math"
	"time"
)

// flash is a one-shot light burst that decays exponentially.
type flash struct {
	x, y  float64
	power float64
}

// pulse is a rhythmic beat source with a finite lifetime.
type pulse struct {
	x, y  float64
	power float64
	left  float64
}

// Lighting tracks the scene's ambient light level and transient surges
// from flashes, pulses and storms. It updates before every other system
// so they can sample its output within the same frame, and renders last
// so its glow sits on top of the composed scene.
type Lighting struct {
	cfg LightingSettings

	level float64 // configured base, 0..1
	boost float64 // positionless surge, decays like a flash
	clock float64

	flashes []flash
	pulses  []pulse

	pending      []Event
	lastNotified float64

	quality Quality
	lod     LODLevel
}

// NewLighting builds the lighting system from its settings section.
func NewLighting(cfg LightingSettings) *Lighting {
	return &Lighting{cfg: cfg, quality: QualityMedium, lod: LODMedium}
}

func (l *Lighting) Name() string { return SystemLighting }

func (l *Lighting) Layer() Layer { return LayerLighting }

func (l *Lighting) Initialize() error {
	l.level = l.cfg.Ambient
	l.lastNotified = l.Ambient().Brightness()
	return nil
}

// Ambient implements AmbientSource.
func (l *Lighting) Ambient() AmbientLight {
	return AmbientLight{Level: l.level, Surge: l.surgeTotal()}
}

// surgeTotal sums every transient contribution above the base level.
func (l *Lighting) surgeTotal() float64 {
	total := l.boost
	for _, f := range l.flashes {
		total += f.power
	}
	for _, p := range l.pulses {
		total += p.power * l.beat()
	}
	return total
}

// beat is the shared pulsar waveform, a sharpened sine so the peaks read
// as distinct beats on screen.
func (l *Lighting) beat() float64 {
	s := math.Sin(2 * math.Pi * l.clock * pulseBeatHz)
	if s < 0 {
		return 0
	}
	return s * s * s
}

const pulseBeatHz = 1.4

func (l *Lighting) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()
	l.clock += dt

	decay := math.Exp(-l.cfg.FlashDecay * dt * 4)
	l.boost *= decay

	kept := l.flashes[:0]
	for _, f := range l.flashes {
		f.power *= decay
		if f.power > 0.01 {
			kept = append(kept, f)
		}
	}
	l.flashes = kept

	alive := l.pulses[:0]
	for _, p := range l.pulses {
		p.left -= dt
		if p.left > 0 {
			alive = append(alive, p)
		}
	}
	l.pulses = alive

	if b := l.Ambient().Brightness(); math.Abs(b-l.lastNotified) >= l.cfg.ShiftNotify {
		l.pending = append(l.pending, Event{
			Type:      EventLightingShift,
			Intensity: b,
			Params:    map[string]float64{"delta": b - l.lastNotified},
		})
		l.lastNotified = b
	}

	reportImpact(ctx, SystemLighting, start, l.elements(), l.memoryBytes())
	return nil
}

// Render draws a sparse dotted halo around each strong light source. The
// glyphs land in empty cells only, so gameplay sprites stay readable.
func (l *Lighting) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}

	step := math.Pi / 8
	if l.lod <= LODLow {
		step = math.Pi / 4
	}

	for _, f := range l.flashes {
		l.halo(ctx, f.x, f.y, f.power, step)
	}
	b := l.beat()
	for _, p := range l.pulses {
		l.halo(ctx, p.x, p.y, p.power*b, step)
	}
	return nil
}

// halo draws concentric dotted rings whose reach grows with power.
func (l *Lighting) halo(ctx RenderContext, x, y, power, step float64) {
	if power < 0.15 {
		return
	}
	sx := x - ctx.Camera.X
	sy := y - ctx.Camera.Y
	maxR := 4 + power*10
	for r := 2.0; r <= maxR; r += 2.5 {
		fade := 1 - r/maxR
		if power*fade < 0.2 {
			continue
		}
		fg := haloShade(power * fade)
		for a := 0.0; a < 2*math.Pi; a += step {
			ctx.Canvas.SetCellFloat(sx+math.Cos(a)*r, sy+math.Sin(a)*r*0.6, '·', fg)
		}
	}
}

// haloShade picks a warm gray ramp index for a glow dot.
func haloShade(v float64) uint8 {
	switch {
	case v > 0.8:
		return 230
	case v > 0.5:
		return 223
	case v > 0.3:
		return 250
	default:
		return 244
	}
}

// Flash registers a burst of light at a position. Power adds directly to
// the surge and decays over the following seconds.
func (l *Lighting) Flash(pos Vec2, intensity float64) {
	if intensity <= 0 {
		return
	}
	l.flashes = append(l.flashes, flash{x: pos.X, y: pos.Y, power: intensity})
}

// StartPulse starts a rhythmic beat source lasting the configured pulse
// duration.
func (l *Lighting) StartPulse(pos Vec2, intensity float64) {
	if intensity <= 0 {
		return
	}
	l.pulses = append(l.pulses, pulse{
		x:     pos.X,
		y:     pos.Y,
		power: intensity * 0.5,
		left:  l.cfg.PulseSecs,
	})
}

// Surge raises the ambient output without a visible source. Used for
// storm glow.
func (l *Lighting) Surge(delta float64) {
	if delta > 0 {
		l.boost += delta
	}
}

// SetAmbientLevel rebases the scene's base light level.
func (l *Lighting) SetAmbientLevel(level float64) {
	l.level = math.Max(0.05, math.Min(1, level))
}

func (l *Lighting) UpdateLOD(level LODLevel) { l.lod = level }

func (l *Lighting) SetQuality(q Quality) { l.quality = q }

func (l *Lighting) Events(px, py float64) []Event {
	if len(l.pending) == 0 {
		return nil
	}
	out := l.pending
	l.pending = nil
	return out
}

func (l *Lighting) Stats() SystemStats {
	return SystemStats{Elements: l.elements()}
}

func (l *Lighting) elements() int {
	return len(l.flashes) + len(l.pulses)
}

func (l *Lighting) memoryBytes() int64 {
	// Rough per-element struct sizes, enough for the budget readout.
	return int64(cap(l.flashes))*24 + int64(cap(l.pulses))*32
}

func (l *Lighting) Close() error {
	l.flashes = nil
	l.pulses = nil
	l.pending = nil
	return nil
}
