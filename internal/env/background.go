package env

import (
	"math"
	"math/rand"
	"time"

	"github.com/mkarren/voidbelt/internal/draw"
)

// nebulaPatch is one soft blob of colored gas. The field it contributes
// falls off quadratically from the center.
type nebulaPatch struct {
	x, y   float64
	radius float64
	weight float64
	vx, vy float64
}

// remnant is an expanding shell left behind by a supernova. It brightens
// the backdrop along a ring and fades out over a few seconds.
type remnant struct {
	x, y   float64
	radius float64
	power  float64
}

// Background paints the deepest layer: nebula patches over the void,
// plus any supernova remnants working their way outward. It renders
// first so everything else draws over it.
type Background struct {
	cfg   BackgroundSettings
	world Bounds

	palette  draw.Palette
	patches  []nebulaPatch
	remnants []remnant

	quality Quality
	lod     LODLevel
}

var nebulaShades = [...]rune{'.', ':', '+', '*'}

// NewBackground builds the backdrop system from its settings section.
func NewBackground(cfg BackgroundSettings, world Bounds) *Background {
	return &Background{
		cfg:     cfg,
		world:   world,
		palette: draw.PaletteByName(cfg.Palette),
		quality: QualityMedium,
		lod:     LODMedium,
	}
}

func (b *Background) Name() string { return SystemBackground }

func (b *Background) Layer() Layer { return LayerBackground }

func (b *Background) Initialize() error {
	b.rollPatches(b.cfg.NebulaCount)
	return nil
}

// rollPatches replaces the nebula layout with count freshly placed blobs.
func (b *Background) rollPatches(count int) {
	b.patches = b.patches[:0]
	span := math.Min(b.world.Width, b.world.Height)
	for i := 0; i < count; i++ {
		b.patches = append(b.patches, nebulaPatch{
			x:      rand.Float64() * b.world.Width,
			y:      rand.Float64() * b.world.Height,
			radius: span * (0.2 + rand.Float64()*0.3),
			weight: 0.7 + rand.Float64()*0.5,
			vx:     (rand.Float64() - 0.5) * 0.4,
			vy:     (rand.Float64() - 0.5) * 0.4,
		})
	}
}

func (b *Background) Update(ctx UpdateContext) error {
	start := time.Now()
	dt := ctx.Delta.Seconds()

	for i := range b.patches {
		p := &b.patches[i]
		p.x += p.vx * dt
		p.y += p.vy * dt
		ctx.World.Wrap(&p.x, &p.y)
	}

	kept := b.remnants[:0]
	for _, r := range b.remnants {
		r.radius += 8 * dt
		r.power -= dt / 6
		if r.power > 0.05 {
			kept = append(kept, r)
		}
	}
	b.remnants = kept

	reportImpact(ctx, SystemBackground, start, b.elements(), int64(cap(b.patches)+cap(b.remnants))*48)
	return nil
}

// Render samples the nebula field on a cell grid. The sampling stride
// grows as the detail level drops, so a distant or struggling view costs
// a fraction of a full pass.
func (b *Background) Render(ctx RenderContext) error {
	if ctx.Canvas == nil {
		return nil
	}

	stride := float64(5 - int(b.lod))
	if stride < 1 {
		stride = 1
	}

	// The backdrop barely tracks the camera, which reads as depth.
	const parallax = 0.25
	camX := ctx.Camera.X * parallax
	camY := ctx.Camera.Y * parallax

	cutoff := 1 - b.cfg.Contrast
	dim := ctx.Ambient.Brightness() < 0.25

	for y := 0.0; y < ctx.View.Height; y += 2 * stride {
		for x := 0.0; x < ctx.View.Width; x += stride {
			jx := x + float64(hash2(int(x), int(y))%uint32(stride*4))/4
			field := b.fieldAt(jx+camX, y+camY)
			if field <= cutoff {
				continue
			}
			t := (field - cutoff) / (1 - cutoff)
			if dim {
				t *= 0.6
			}
			shade := nebulaShades[shadeIndex(t)]
			ctx.Canvas.SetCellFloat(jx, y, shade, b.palette.Index256At(t))
		}
	}

	for _, r := range b.remnants {
		b.renderRemnant(ctx, r)
	}
	return nil
}

// fieldAt sums every patch's contribution at a world position, with
// toroidal wrapping so blobs bleed across the world seam.
func (b *Background) fieldAt(wx, wy float64) float64 {
	var field float64
	for _, p := range b.patches {
		dx := wrapDelta(wx-p.x, b.world.Width)
		dy := wrapDelta(wy-p.y, b.world.Height)
		d2 := dx*dx + dy*dy
		r2 := p.radius * p.radius
		if d2 >= r2 {
			continue
		}
		field += p.weight * (1 - d2/r2)
	}
	if field > 1 {
		return 1
	}
	return field
}

// renderRemnant draws the expanding shell as a dotted ring.
func (b *Background) renderRemnant(ctx RenderContext, r remnant) {
	sx := r.x - ctx.Camera.X
	sy := r.y - ctx.Camera.Y
	fg := b.palette.Index256At(r.power)
	step := math.Pi / 16
	if b.lod <= LODLow {
		step = math.Pi / 8
	}
	for a := 0.0; a < 2*math.Pi; a += step {
		ctx.Canvas.SetCellFloat(sx+math.Cos(a)*r.radius, sy+math.Sin(a)*r.radius*0.6, '*', fg)
	}
}

// SetScene swaps the palette and re-rolls the nebula layout. Used by the
// environment presets.
func (b *Background) SetScene(palette string, nebulaCount int) {
	b.palette = draw.PaletteByName(palette)
	if nebulaCount >= 0 {
		b.rollPatches(nebulaCount)
	}
}

// AddRemnant starts an expanding supernova shell at a position.
func (b *Background) AddRemnant(pos Vec2, intensity float64) {
	if intensity <= 0 {
		return
	}
	b.remnants = append(b.remnants, remnant{
		x:      pos.X,
		y:      pos.Y,
		radius: 2,
		power:  math.Min(intensity, 1),
	})
}

func (b *Background) UpdateLOD(level LODLevel) { b.lod = level }

func (b *Background) SetQuality(q Quality) { b.quality = q }

func (b *Background) Events(px, py float64) []Event { return nil }

func (b *Background) Stats() SystemStats {
	return SystemStats{Elements: b.elements()}
}

func (b *Background) elements() int {
	return len(b.patches) + len(b.remnants)
}

func (b *Background) Close() error {
	b.patches = nil
	b.remnants = nil
	return nil
}

// shadeIndex maps a 0..1 field value onto the shade ladder.
func shadeIndex(t float64) int {
	i := int(t * float64(len(nebulaShades)))
	if i >= len(nebulaShades) {
		i = len(nebulaShades) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// wrapDelta returns the shortest signed distance between two coordinates
// on a wrapping axis of the given span.
func wrapDelta(d, span float64) float64 {
	if span <= 0 {
		return d
	}
	for d > span/2 {
		d -= span
	}
	for d < -span/2 {
		d += span
	}
	return d
}

// hash2 is a small integer hash used to jitter sampling grids.
func hash2(x, y int) uint32 {
	h := uint32(x)*0x85ebca6b ^ uint32(y)*0xc2b2ae35
	h ^= h >> 13
	h *= 0x27d4eb2f
	return h ^ h>>16
}
