package draw

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ANSI foreground color sequences for text overlays (HUD, minimap, names).
const (
	ColorReset      = "\033[0m"
	ColorDim        = "\033[2m"
	ColorCyan       = "\033[36m"
	ColorYellow     = "\033[33m"
	ColorRed        = "\033[31m"
	ColorBrightCyan = "\033[96m"
)

// fgTable caches the xterm-256 foreground escape sequence for every index,
// so hot render paths never format strings per cell.
var fgTable = func() [256]string {
	var t [256]string
	for i := range t {
		t[i] = fmt.Sprintf("\033[38;5;%dm", i)
	}
	return t
}()

// Fg256 returns the escape sequence selecting the given xterm-256 foreground.
func Fg256(idx uint8) string {
	return fgTable[idx]
}

// Index256 maps an RGB color to the nearest xterm-256 palette index,
// using the 6x6x6 color cube (16..231) and the grayscale ramp (232..255).
func Index256(c colorful.Color) uint8 {
	r, g, b := c.RGB255()

	// Grayscale candidates give better fidelity for low-saturation colors.
	if r == g && g == b {
		if r < 8 {
			return 16 // Cube black
		}
		step := (int(r) - 8) / 10
		if step > 23 {
			return 231 // Cube white
		}
		return uint8(232 + step)
	}

	ri := cubeIndex(r)
	gi := cubeIndex(g)
	bi := cubeIndex(b)
	return uint8(16 + 36*ri + 6*gi + bi)
}

// cubeIndex maps a 0-255 channel value to the nearest 0-5 cube step.
func cubeIndex(v uint8) int {
	if v < 48 {
		return 0
	}
	if v < 115 {
		return 1
	}
	return int(v-35) / 40
}

// Palette is a small gradient used to color environmental layers.
// Blend positions run 0 (darkest stop) to 1 (brightest stop).
type Palette struct {
	stops []colorful.Color
}

// Named palettes for environment archetypes.
var palettes = map[string]Palette{
	"void":   {stops: []colorful.Color{mustHex("#05060f"), mustHex("#141b3c"), mustHex("#3a4a8c")}},
	"orchid": {stops: []colorful.Color{mustHex("#12041f"), mustHex("#4b1d6e"), mustHex("#b86bd6")}},
	"rust":   {stops: []colorful.Color{mustHex("#140a06"), mustHex("#57301a"), mustHex("#b07040")}},
	"aurora": {stops: []colorful.Color{mustHex("#041410"), mustHex("#0e4f3f"), mustHex("#3fae8c")}},
	"ember":  {stops: []colorful.Color{mustHex("#1a0802"), mustHex("#7a2d08"), mustHex("#f2a541")}},
}

// PaletteByName returns a named palette, falling back to "void" for unknown names.
func PaletteByName(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes["void"]
}

// PaletteNames lists the available palette names.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	return names
}

// At blends the palette at position t in [0,1] and returns the color.
// Blending happens in Luv space for perceptually even gradients.
func (p Palette) At(t float64) colorful.Color {
	if len(p.stops) == 0 {
		return colorful.Color{}
	}
	if t <= 0 {
		return p.stops[0]
	}
	if t >= 1 {
		return p.stops[len(p.stops)-1]
	}

	// Position within the stop list
	segs := float64(len(p.stops) - 1)
	pos := t * segs
	i := int(pos)
	frac := pos - float64(i)
	return p.stops[i].BlendLuv(p.stops[i+1], frac)
}

// Index256At is shorthand for Index256(p.At(t)).
func (p Palette) Index256At(t float64) uint8 {
	return Index256(p.At(t))
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
