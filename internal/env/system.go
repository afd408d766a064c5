package env

import (
	"io"
	"time"

	"github.com/mkarren/voidbelt/internal/draw"
)

// Layer identifies one pass of the fixed render order. The order is a hard
// invariant: background first, lighting last, so each layer composites
// correctly over the previous ones.
type Layer int

const (
	LayerBackground Layer = iota
	LayerStarfield
	LayerAtmosphereFar
	LayerHazards
	LayerWeather
	LayerInteractive
	LayerAtmosphereNear
	LayerLighting
)

var layerNames = [...]string{
	"background",
	"starfield",
	"atmosphere_far",
	"hazards",
	"weather",
	"interactive",
	"atmosphere_near",
	"lighting",
}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "layer(?)"
	}
	return layerNames[l]
}

// renderOrder is the compositing sequence Render walks every frame.
var renderOrder = [...]Layer{
	LayerBackground,
	LayerStarfield,
	LayerAtmosphereFar,
	LayerHazards,
	LayerWeather,
	LayerInteractive,
	LayerAtmosphereNear,
	LayerLighting,
}

// UpdateContext carries everything a system may read during one update.
// Camera and player state are per-frame values passed in; systems must not
// retain references across frames.
type UpdateContext struct {
	Delta   time.Duration
	Camera  Camera
	Player  Vec2
	World   Bounds
	Ambient AmbientLight // Lighting output from this frame (lighting updates first)
	Impacts ImpactSink   // Fire-and-forget performance reports

	// Allowance is this system's update budget share in milliseconds,
	// used to scale impact severity.
	Allowance float64
}

// RenderContext carries the drawing surface for one layer pass.
type RenderContext struct {
	Canvas  *draw.Canvas
	Writer  io.Writer
	Camera  Camera
	Player  Vec2
	View    Bounds // Visible extent in logical canvas units
	World   Bounds
	Layer   Layer // The pass being drawn, for multi-layer systems
	Ambient AmbientLight
}

// System is the contract every environmental system implements. Systems own
// their elements and rendering; the manager only drives the lifecycle.
type System interface {
	// Name returns the unique registry key.
	Name() string

	// Layer returns the render pass this system draws in.
	Layer() Layer

	// Initialize allocates internal element storage. It is idempotent; an
	// error is fatal to manager construction.
	Initialize() error

	// Update advances the simulation by ctx.Delta. It must not render.
	Update(ctx UpdateContext) error

	// Render issues draw calls for one layer pass. It must not mutate
	// simulation state.
	Render(ctx RenderContext) error

	// UpdateLOD sets the reactive detail level, effective next Update.
	UpdateLOD(level LODLevel)

	// SetQuality sets the baseline richness tier, effective next Update.
	SetQuality(q Quality)

	// Events returns this frame's environmental events at the player
	// position. Polled every frame whether or not the system is active.
	Events(px, py float64) []Event

	// Stats returns a cheap read-only snapshot.
	Stats() SystemStats

	// Close releases resources. Errors are logged, not propagated.
	Close() error
}

// MultiLayer is implemented by systems that draw in more than one render
// pass. Layer() remains the primary pass used for ordering diagnostics.
type MultiLayer interface {
	Layers() []Layer
}

// AmbientSource is implemented by the system that produces the frame's
// ambient light (dynamic lighting). The manager samples it after the
// lighting update and hands the value to every other system.
type AmbientSource interface {
	Ambient() AmbientLight
}

// Impact is a system's own estimate of its cost for the current frame.
type Impact struct {
	System       string
	UpdateMillis float64
	RenderMillis float64
	Elements     int
	MemoryBytes  int64
	Severity     float64 // 0..1; at or above SeverityThreshold the manager reduces LOD
}

// SeverityThreshold is the impact severity at which the manager reacts by
// lowering the LOD level.
const SeverityThreshold = 0.8

// ImpactSink receives performance reports during update. Reporting is
// fire-and-forget: same frame, synchronous, no backpressure.
type ImpactSink interface {
	Report(im Impact)
}

// SystemStats is a read-only snapshot of one system. Timing fields are
// filled in by the manager, which measures each call itself.
type SystemStats struct {
	Elements     int
	UpdateMillis float64
	RenderMillis float64
}
