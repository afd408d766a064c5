package env

import (
	"math"
	"math/rand"
	"time"
)

type interactiveKind int

const (
	interactiveSalvage interactiveKind = iota
	interactiveBeacon
	interactiveDerelict
)

func (k interactiveKind) String() string {
	switch k {
	case interactiveSalvage:
		return "salvage"
	case interactiveBeacon:
		return "beacon"
	default:
		return "derelict"
	}
}

// interactable is one object the player can approach. Salvage drifts and
// can be claimed; beacons blink in place; derelicts sit dark until
// picked over. life above zero marks storm-scattered salvage that fades
// away instead of respawning.
type interactable struct {
	kind     interactiveKind
	x, y     float64
	vx, vy   float64
	value    float64
	phase    float64
	life     float64
	notified bool
}

// InteractiveField scatters the objects worth flying toward: salvage to
// collect, beacons to navigate by, derelicts to loot. It pings when the
// player comes within notify range of anything.
type InteractiveField struct {
	cfg   InteractiveSettings
	world Bounds

	items   []interactable
	respawn []float64

	abundance float64
	clock     float64

	quality Quality
	lod     LODLevel
}

// NewInteractiveField builds the system from its settings section.
func NewInteractiveField(cfg InteractiveSettings, world Bounds) *InteractiveField {
	return &InteractiveField{
		cfg:       cfg,
		world:     world,
		abundance: 1,
		quality:   QualityMedium,
		lod:       LODMedium,
	}
}

func (f *InteractiveField) Name() string { return SystemInteractive }

func (f *InteractiveField) Layer() Layer { return LayerInteractive }

func (f *InteractiveField) Initialize() error {
	for i := 0; i < f.cfg.Salvage; i++ {
		f.items = append(f.items, f.spawnSalvage(0))
	}
	for i := 0; i < f.cfg.Beacons; i++ {
		f.items = append(f.items, interactable{
			kind:  interactiveBeacon,
			x:     rand.Float64() * f.world.Width,
			y:     rand.Float64() * f.world.Height,
			phase: rand.Float64() * 2 * math.Pi,
		})
	}
	for i := 0; i < f.cfg.Derelicts; i++ {
		f.items = append(f.items, interactable{
			kind:  interactiveDerelict,
			x:     rand.Float64() * f.world.Width,
			y:     rand.Float64() * f.world.Height,
			value: 25 + rand.Float64()*35,
		})
	}
	return nil
}

// spawnSalvage rolls a drifting piece of salvage. A nonzero life makes
// it temporary.
func (f *InteractiveField) spawnSalvage(life float64) interactable {
	dir := rand.Float64() * 2 * math.Pi
	return interactable{
		kind:  interactiveSalvage,
		x:     rand.Float64() * f.world.Width,
		y:     rand.Float64() * f.world.Height,
		vx:    math.Cos(dir) * 0.8,
		vy:    math.Sin(dir) * 0.8,
		value: 5 + rand.Float64()*10,
		life:  life,
	}
}

func (f *InteractiveField) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()
	f.clock += dt

	kept := f.items[:0]
	for _, it := range f.items {
		if it.life > 0 {
			it.life -= dt
			if it.life <= 0 {
				continue
			}
		}
		it.x += it.vx * dt
		it.y += it.vy * dt
		it.phase += dt
		ctx.World.Wrap(&it.x, &it.y)
		kept = append(kept, it)
	}
	f.items = kept

	f.tickRespawns(dt)
	f.reconcile()

	reportImpact(ctx, SystemInteractive, start, len(f.items), int64(cap(f.items))*72)
	return nil
}

// tickRespawns counts the claimed-salvage timers down and spawns
// replacements as they expire.
func (f *InteractiveField) tickRespawns(dt float64) {
	kept := f.respawn[:0]
	for _, t := range f.respawn {
		t -= dt
		if t <= 0 {
			f.items = append(f.items, f.spawnSalvage(0))
			continue
		}
		kept = append(kept, t)
	}
	f.respawn = kept
}

// reconcile tops the permanent salvage population up to the abundance
// target. Pending respawns count toward it, so claims keep their delay.
func (f *InteractiveField) reconcile() {
	target := int(float64(f.cfg.Salvage) * f.abundance)
	have := len(f.respawn)
	for _, it := range f.items {
		if it.kind == interactiveSalvage && it.life == 0 {
			have++
		}
	}
	for ; have < target; have++ {
		f.items = append(f.items, f.spawnSalvage(0))
	}
}

func (f *InteractiveField) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}
	for _, it := range f.items {
		x := it.x - ctx.Camera.X
		y := it.y - ctx.Camera.Y
		switch it.kind {
		case interactiveSalvage:
			ctx.Canvas.SetCellFloat(x, y, '◊', 220)
		case interactiveBeacon:
			if math.Sin(f.clock*3+it.phase) > 0 {
				ctx.Canvas.SetCellFloat(x, y, '!', 51)
			} else {
				ctx.Canvas.SetCellFloat(x, y, '!', 24)
			}
		case interactiveDerelict:
			ctx.Canvas.SetCellFloat(x-1, y, '=', 240)
			ctx.Canvas.SetCellFloat(x, y, '#', 245)
			ctx.Canvas.SetCellFloat(x+1, y, '=', 240)
		}
	}
	return nil
}

// Events runs the proximity scan: one ping per object when the player
// first comes within notify range, re-armed once they leave again.
func (f *InteractiveField) Events(px, py float64) []Event {
	var out []Event
	for i := range f.items {
		it := &f.items[i]
		dx := wrapDelta(px-it.x, f.world.Width)
		dy := wrapDelta(py-it.y, f.world.Height)
		d := math.Hypot(dx, dy)
		switch {
		case !it.notified && d < f.cfg.NotifyRange:
			it.notified = true
			out = append(out, Event{
				Type:      EventInteractiveNearby,
				X:         it.x,
				Y:         it.y,
				Radius:    f.cfg.NotifyRange,
				Intensity: it.value,
				Params:    map[string]float64{"kind": float64(it.kind)},
			})
		case it.notified && d > f.cfg.NotifyRange*1.5:
			it.notified = false
		}
	}
	return out
}

// Claim collects the nearest salvage or derelict within reach and
// returns its value. Claimed permanent salvage respawns elsewhere after
// a delay; derelicts and storm salvage are gone for good.
func (f *InteractiveField) Claim(px, py, reach float64) (float64, bool) {
	best := -1
	bestDist := reach
	for i, it := range f.items {
		if it.kind == interactiveBeacon {
			continue
		}
		dx := wrapDelta(px-it.x, f.world.Width)
		dy := wrapDelta(py-it.y, f.world.Height)
		if d := math.Hypot(dx, dy); d <= bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return 0, false
	}

	it := f.items[best]
	f.items = append(f.items[:best], f.items[best+1:]...)
	if it.kind == interactiveSalvage && it.life == 0 {
		f.respawn = append(f.respawn, 20+rand.Float64()*20)
	}
	return it.value, true
}

// ScatterSalvage sprays temporary salvage around a point, the debris an
// asteroid storm leaves behind.
func (f *InteractiveField) ScatterSalvage(pos Vec2, intensity float64) {
	in := math.Min(math.Max(intensity, 0), 1)
	n := 2 + int(6*in)
	for i := 0; i < n; i++ {
		it := f.spawnSalvage(30 + rand.Float64()*15)
		dir := rand.Float64() * 2 * math.Pi
		spread := 3 + rand.Float64()*(6+in*10)
		it.x = pos.X + math.Cos(dir)*spread
		it.y = pos.Y + math.Sin(dir)*spread
		f.world.Wrap(&it.x, &it.y)
		f.items = append(f.items, it)
	}
}

// SetAbundanceScale adjusts the permanent salvage target. Shrinking the
// target trims unclaimed salvage immediately.
func (f *InteractiveField) SetAbundanceScale(scale float64) {
	f.abundance = math.Max(0.1, math.Min(3, scale))
	target := int(float64(f.cfg.Salvage) * f.abundance)

	have := len(f.respawn)
	kept := f.items[:0]
	for _, it := range f.items {
		if it.kind == interactiveSalvage && it.life == 0 {
			if have >= target {
				continue
			}
			have++
		}
		kept = append(kept, it)
	}
	f.items = kept
}

func (f *InteractiveField) UpdateLOD(level LODLevel) { f.lod = level }

func (f *InteractiveField) SetQuality(q Quality) { f.quality = q }

func (f *InteractiveField) Stats() SystemStats {
	return SystemStats{Elements: len(f.items)}
}

func (f *InteractiveField) Close() error {
	f.items = nil
	f.respawn = nil
	return nil
}
