// Package env orchestrates the environmental effect systems that run inside
// the per-frame game loop: starfield, weather, hazards, background,
// atmosphere, interactive objects and dynamic lighting. The Manager drives
// update and render for every system in a fixed compositing order, adapts
// detail to measured performance, and surfaces environmental events to the
// embedding game without coupling to it.
package env

import "math"

// Vec2 is a position in world coordinates.
type Vec2 struct {
	X, Y float64
}

// Camera describes the view the effects are simulated and rendered for.
type Camera struct {
	X, Y float64 // View center in world coordinates
	Dist float64 // View distance: 1 = default, larger sees more world at less detail
}

// Bounds is the size of the wrapping world the effects live in.
type Bounds struct {
	Width, Height float64
}

// Area returns the world surface in square units.
func (b Bounds) Area() float64 {
	return b.Width * b.Height
}

// Wrap wraps x and y into the world (Asteroids-style toroidal space).
func (b Bounds) Wrap(x, y *float64) {
	if b.Width > 0 {
		*x = math.Mod(*x, b.Width)
		if *x < 0 {
			*x += b.Width
		}
	}
	if b.Height > 0 {
		*y = math.Mod(*y, b.Height)
		if *y < 0 {
			*y += b.Height
		}
	}
}

// AmbientLight is the dynamic lighting system's per-frame output, sampled by
// the other systems during their updates.
type AmbientLight struct {
	Level float64 // Steady ambient brightness in [0,1]
	Surge float64 // Transient boost from flashes and pulses, decays over time
}

// Brightness returns the combined light level clamped to [0,1.5].
func (a AmbientLight) Brightness() float64 {
	v := a.Level + a.Surge
	if v < 0 {
		return 0
	}
	if v > 1.5 {
		return 1.5
	}
	return v
}
