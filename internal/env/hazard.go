package env

import (
	"math"
	"math/rand"
	"time"
)

type hazardKind int

const (
	hazardGravityWell hazardKind = iota
	hazardRadiation
	hazardDebris
)

func (k hazardKind) String() string {
	switch k {
	case hazardGravityWell:
		return "gravity_well"
	case hazardRadiation:
		return "radiation"
	default:
		return "debris"
	}
}

// hazard is one placed zone. ttl zero means permanent; temporary wells
// come from wormhole events.
type hazard struct {
	kind      hazardKind
	x, y      float64
	radius    float64
	intensity float64
	age       float64
	ttl       float64
	spin      float64
	contains  bool
}

// ZoneInfo is a read-only view of a placed hazard, for minimaps and
// server snapshots.
type ZoneInfo struct {
	Kind      string
	X, Y      float64
	Radius    float64
	Intensity float64
}

// HazardField places gravity wells, radiation zones and debris fields in
// the world, reports when the player crosses their boundaries, and
// answers the gameplay queries for pull force and radiation exposure.
type HazardField struct {
	cfg   HazardSettings
	world Bounds

	hazards []hazard
	pending []Event

	quality Quality
	lod     LODLevel
}

// NewHazardField builds the hazard system from its settings section.
func NewHazardField(cfg HazardSettings, world Bounds) *HazardField {
	return &HazardField{
		cfg:     cfg,
		world:   world,
		quality: QualityMedium,
		lod:     LODMedium,
	}
}

func (h *HazardField) Name() string { return SystemHazards }

func (h *HazardField) Layer() Layer { return LayerHazards }

func (h *HazardField) Initialize() error {
	h.place(h.cfg.GravityWells, h.cfg.RadiationZones, h.cfg.DebrisFields)
	return nil
}

// place fills the field with freshly rolled permanent hazards.
func (h *HazardField) place(wells, zones, debris int) {
	for i := 0; i < wells; i++ {
		h.hazards = append(h.hazards, h.roll(hazardGravityWell))
	}
	for i := 0; i < zones; i++ {
		h.hazards = append(h.hazards, h.roll(hazardRadiation))
	}
	for i := 0; i < debris; i++ {
		h.hazards = append(h.hazards, h.roll(hazardDebris))
	}
}

func (h *HazardField) roll(kind hazardKind) hazard {
	intensity := 0.4 + rand.Float64()*0.5
	if kind == hazardDebris {
		intensity = 0.2 + rand.Float64()*0.4
	}
	return hazard{
		kind:      kind,
		x:         rand.Float64() * h.world.Width,
		y:         rand.Float64() * h.world.Height,
		radius:    h.cfg.MinRadius + rand.Float64()*(h.cfg.MaxRadius-h.cfg.MinRadius),
		intensity: intensity,
		spin:      rand.Float64() * 2 * math.Pi,
	}
}

func (h *HazardField) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()

	kept := h.hazards[:0]
	for _, hz := range h.hazards {
		hz.age += dt
		hz.spin += dt * 0.8
		if hz.ttl > 0 && hz.age >= hz.ttl {
			// Expiring around the player still counts as leaving it.
			if hz.contains {
				h.pending = append(h.pending, h.boundaryEvent(EventHazardExited, hz))
			}
			continue
		}
		kept = append(kept, hz)
	}
	h.hazards = kept

	reportImpact(ctx, SystemHazards, start, len(h.hazards), int64(cap(h.hazards))*80)
	return nil
}

func (h *HazardField) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}
	for i := range h.hazards {
		hz := &h.hazards[i]
		sx := hz.x - ctx.Camera.X
		sy := hz.y - ctx.Camera.Y
		switch hz.kind {
		case hazardGravityWell:
			h.renderWell(ctx, sx, sy, hz)
		case hazardRadiation:
			h.renderRadiation(ctx, sx, sy, hz)
		case hazardDebris:
			h.renderDebris(ctx, sx, sy, hz)
		}
	}
	return nil
}

// renderWell draws the boundary ring and two spiral arms winding inward.
func (h *HazardField) renderWell(ctx RenderContext, sx, sy float64, hz *hazard) {
	step := h.ringStep()
	for a := 0.0; a < 2*math.Pi; a += step {
		ctx.Canvas.SetFloat(sx+math.Cos(a)*hz.radius, sy+math.Sin(a)*hz.radius*0.6)
	}
	for arm := 0; arm < 2; arm++ {
		offset := hz.spin + float64(arm)*math.Pi
		for t := 0.15; t < 1; t += 0.17 {
			a := offset + t*3
			r := hz.radius * t
			ctx.Canvas.SetFloat(sx+math.Cos(a)*r, sy+math.Sin(a)*r*0.6)
		}
	}
	ctx.Canvas.SetCellFloat(sx, sy, '@', 141)
}

// renderRadiation scatters sickly static inside the zone. Cell picks are
// hash-gated so the pattern shimmers without storing particles.
func (h *HazardField) renderRadiation(ctx RenderContext, sx, sy float64, hz *hazard) {
	step := h.ringStep()
	frame := uint32(hz.spin * 10)
	for r := hz.radius * 0.25; r < hz.radius; r += hz.radius * 0.25 {
		for a := 0.0; a < 2*math.Pi; a += step {
			if hash2(int(a*57), int(r))%3 != frame%3 {
				continue
			}
			ctx.Canvas.SetCellFloat(sx+math.Cos(a)*r, sy+math.Sin(a)*r*0.6, '░', 112)
		}
	}
	ctx.Canvas.SetCellFloat(sx, sy, '%', 118)
}

// renderDebris tumbles a cloud of rocks slowly around the field center.
func (h *HazardField) renderDebris(ctx RenderContext, sx, sy float64, hz *hazard) {
	rocks := 6 + int(hz.radius/4)*int(h.lod+1)
	for k := 0; k < rocks; k++ {
		seed := hash2(k, int(hz.radius))
		r := hz.radius * (0.2 + float64(seed%70)/100)
		a := float64(seed%628)/100 + hz.spin*0.25
		ctx.Canvas.SetFloat(sx+math.Cos(a)*r, sy+math.Sin(a)*r*0.6)
	}
}

// ringStep widens the outline sampling as detail drops.
func (h *HazardField) ringStep() float64 {
	switch {
	case h.lod <= LODVeryLow:
		return math.Pi / 6
	case h.lod <= LODLow:
		return math.Pi / 10
	default:
		return math.Pi / 16
	}
}

// Events drains pending boundary notices and runs the containment scan
// for the polled position.
func (h *HazardField) Events(px, py float64) []Event {
	out := h.pending
	h.pending = nil

	for i := range h.hazards {
		hz := &h.hazards[i]
		dx := wrapDelta(px-hz.x, h.world.Width)
		dy := wrapDelta(py-hz.y, h.world.Height)
		d := math.Hypot(dx, dy)
		switch {
		case !hz.contains && d < hz.radius:
			hz.contains = true
			out = append(out, h.boundaryEvent(EventHazardEntered, *hz))
		case hz.contains && d > hz.radius*1.05:
			// Small hysteresis so skimming the edge does not flap.
			hz.contains = false
			out = append(out, h.boundaryEvent(EventHazardExited, *hz))
		}
	}
	return out
}

func (h *HazardField) boundaryEvent(t EventType, hz hazard) Event {
	return Event{
		Type:      t,
		X:         hz.x,
		Y:         hz.y,
		Radius:    hz.radius,
		Intensity: hz.intensity,
		Params:    map[string]float64{"kind": float64(hz.kind)},
	}
}

// GravityPull sums the well forces acting on a position. The pull points
// toward each well's center and fades linearly to zero at the rim.
func (h *HazardField) GravityPull(px, py float64) (fx, fy float64) {
	for _, hz := range h.hazards {
		if hz.kind != hazardGravityWell {
			continue
		}
		dx := wrapDelta(hz.x-px, h.world.Width)
		dy := wrapDelta(hz.y-py, h.world.Height)
		d := math.Hypot(dx, dy)
		if d >= hz.radius || d < 1e-6 {
			continue
		}
		f := h.cfg.WellStrength * hz.intensity * (1 - d/hz.radius)
		fx += dx / d * f
		fy += dy / d * f
	}
	return fx, fy
}

// DamageRate returns the radiation exposure per second at a position.
func (h *HazardField) DamageRate(px, py float64) float64 {
	var rate float64
	for _, hz := range h.hazards {
		if hz.kind != hazardRadiation {
			continue
		}
		dx := wrapDelta(px-hz.x, h.world.Width)
		dy := wrapDelta(py-hz.y, h.world.Height)
		d := math.Hypot(dx, dy)
		if d >= hz.radius {
			continue
		}
		rate += hz.intensity * (1 - d/hz.radius)
	}
	return rate
}

// Zones returns a snapshot of every placed hazard.
func (h *HazardField) Zones() []ZoneInfo {
	out := make([]ZoneInfo, 0, len(h.hazards))
	for _, hz := range h.hazards {
		out = append(out, ZoneInfo{
			Kind:      hz.kind.String(),
			X:         hz.x,
			Y:         hz.y,
			Radius:    hz.radius,
			Intensity: hz.intensity,
		})
	}
	return out
}

// SpawnWell drops a temporary gravity well, the aftermath of a wormhole
// opening. Lifetime and strength grow with intensity.
func (h *HazardField) SpawnWell(pos Vec2, intensity float64) {
	if intensity <= 0 {
		return
	}
	in := math.Min(intensity, 1)
	h.hazards = append(h.hazards, hazard{
		kind:      hazardGravityWell,
		x:         pos.X,
		y:         pos.Y,
		radius:    h.cfg.MinRadius + (h.cfg.MaxRadius-h.cfg.MinRadius)*(0.3+0.5*in),
		intensity: 0.6 + 0.4*in,
		ttl:       15 + 15*in,
		spin:      rand.Float64() * 2 * math.Pi,
	})
}

// Compose replaces the permanent hazards with the given mix. Temporary
// wells ride out their lifetime; exits are raised for any replaced zone
// the player was inside.
func (h *HazardField) Compose(wells, zones, debris int) {
	kept := h.hazards[:0]
	for _, hz := range h.hazards {
		if hz.ttl > 0 {
			kept = append(kept, hz)
			continue
		}
		if hz.contains {
			h.pending = append(h.pending, h.boundaryEvent(EventHazardExited, hz))
		}
	}
	h.hazards = kept
	h.place(wells, zones, debris)
}

func (h *HazardField) UpdateLOD(level LODLevel) { h.lod = level }

func (h *HazardField) SetQuality(q Quality) { h.quality = q }

func (h *HazardField) Stats() SystemStats {
	return SystemStats{Elements: len(h.hazards)}
}

func (h *HazardField) Close() error {
	h.hazards = nil
	h.pending = nil
	return nil
}
