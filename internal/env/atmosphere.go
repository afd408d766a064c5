package env

import (
	"math"
	"math/rand"
	"time"
)

// plume is one drifting wisp of dust or gas.
type plume struct {
	x, y   float64
	vx, vy float64
	phase  float64
	near   bool
}

// Atmosphere drifts translucent dust plumes through the scene in two
// depth bands. The far band renders before the gameplay layers and the
// near band after them, which is why this is the one system drawing in
// two layer passes.
type Atmosphere struct {
	cfg   AtmosphereSettings
	world Bounds

	plumes []plume
	scale  float64
	clock  float64

	quality Quality
	lod     LODLevel
}

// NewAtmosphere builds the dust system from its settings section.
func NewAtmosphere(cfg AtmosphereSettings, world Bounds) *Atmosphere {
	return &Atmosphere{
		cfg:     cfg,
		world:   world,
		scale:   1,
		quality: QualityMedium,
		lod:     LODMedium,
	}
}

func (a *Atmosphere) Name() string { return SystemAtmosphere }

// Layer reports the primary layer; rendering actually happens in both
// passes returned by Layers.
func (a *Atmosphere) Layer() Layer { return LayerAtmosphereFar }

// Layers implements MultiLayer.
func (a *Atmosphere) Layers() []Layer {
	return []Layer{LayerAtmosphereFar, LayerAtmosphereNear}
}

func (a *Atmosphere) Initialize() error {
	a.reconcile()
	return nil
}

// targetCounts splits the plume budget between the two bands.
func (a *Atmosphere) targetCounts() (far, near int) {
	f := a.quality.Factor() * a.lod.Factor() * a.scale
	return int(float64(a.cfg.FarPlumes) * f), int(float64(a.cfg.NearPlumes) * f)
}

// reconcile adjusts each band's population toward its target.
func (a *Atmosphere) reconcile() {
	farTarget, nearTarget := a.targetCounts()

	var far, near int
	kept := a.plumes[:0]
	for _, p := range a.plumes {
		if p.near {
			if near >= nearTarget {
				continue
			}
			near++
		} else {
			if far >= farTarget {
				continue
			}
			far++
		}
		kept = append(kept, p)
	}
	a.plumes = kept

	for far < farTarget {
		a.plumes = append(a.plumes, a.spawn(false))
		far++
	}
	for near < nearTarget {
		a.plumes = append(a.plumes, a.spawn(true))
		near++
	}
}

func (a *Atmosphere) spawn(near bool) plume {
	speed := a.cfg.DriftSpeed * (0.5 + rand.Float64())
	if near {
		speed *= 1.6
	}
	dir := rand.Float64() * 2 * math.Pi
	return plume{
		x:     rand.Float64() * a.world.Width,
		y:     rand.Float64() * a.world.Height,
		vx:    math.Cos(dir) * speed,
		vy:    math.Sin(dir) * speed * 0.5,
		phase: rand.Float64() * 2 * math.Pi,
		near:  near,
	}
}

func (a *Atmosphere) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()
	a.clock += dt

	a.reconcile()
	for i := range a.plumes {
		p := &a.plumes[i]
		sway := math.Sin(a.clock*0.7+p.phase) * 0.3
		p.x += (p.vx + sway) * dt
		p.y += p.vy * dt
		ctx.World.Wrap(&p.x, &p.y)
	}

	reportImpact(ctx, SystemAtmosphere, start, len(a.plumes), int64(cap(a.plumes))*48)
	return nil
}

// Render draws only the band that matches the current layer pass.
func (a *Atmosphere) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}
	near := ctx.Layer == LayerAtmosphereNear

	parallax := 0.5
	ch, fg := '·', uint8(60)
	if near {
		parallax = 1.2
		ch, fg = '°', uint8(109)
	}

	for _, p := range a.plumes {
		if p.near != near {
			continue
		}
		x := wrapCoord(p.x-ctx.Camera.X*parallax, a.world.Width)
		y := wrapCoord(p.y-ctx.Camera.Y*parallax, a.world.Height)
		ctx.Canvas.SetCellFloat(x, y, ch, fg)
	}
	return nil
}

// SetDensityScale adjusts the preset density multiplier.
func (a *Atmosphere) SetDensityScale(scale float64) {
	a.scale = math.Max(0.1, math.Min(3, scale))
}

func (a *Atmosphere) UpdateLOD(level LODLevel) { a.lod = level }

func (a *Atmosphere) SetQuality(q Quality) { a.quality = q }

func (a *Atmosphere) Events(px, py float64) []Event { return nil }

func (a *Atmosphere) Stats() SystemStats {
	return SystemStats{Elements: len(a.plumes)}
}

func (a *Atmosphere) Close() error {
	a.plumes = nil
	return nil
}
