package draw

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestFg256Sequences(t *testing.T) {
	if got := Fg256(100); got != "\033[38;5;100m" {
		t.Fatalf("Fg256(100) = %q", got)
	}
	if got := Fg256(0); got != "\033[38;5;0m" {
		t.Fatalf("Fg256(0) = %q", got)
	}
	if got := Fg256(255); got != "\033[38;5;255m" {
		t.Fatalf("Fg256(255) = %q", got)
	}
}

func TestIndex256Anchors(t *testing.T) {
	cases := []struct {
		hex  string
		want uint8
	}{
		{"#000000", 16},  // Cube black
		{"#ffffff", 231}, // Cube white
		{"#ff0000", 196}, // Cube pure red
		{"#00ff00", 46},  // Cube pure green
		{"#0000ff", 21},  // Cube pure blue
		{"#808080", 244}, // Mid gray lands on the ramp
	}
	for _, c := range cases {
		col := mustHex(c.hex)
		if got := Index256(col); got != c.want {
			t.Errorf("Index256(%s) = %d, want %d", c.hex, got, c.want)
		}
	}
}

func TestIndex256GrayRampStaysInRange(t *testing.T) {
	for v := 0; v < 256; v++ {
		g := float64(v) / 255
		idx := Index256(colorful.Color{R: g, G: g, B: g})
		ok := idx == 16 || idx == 231 || (idx >= 232)
		if !ok {
			t.Fatalf("gray %d mapped to %d, outside ramp and anchors", v, idx)
		}
	}
}

func TestPaletteFallsBackToVoid(t *testing.T) {
	unknown := PaletteByName("submarine")
	void := PaletteByName("void")
	if unknown.At(0) != void.At(0) || unknown.At(1) != void.At(1) {
		t.Fatal("unknown palette name did not fall back to void")
	}
}

func TestPaletteEndpointsAndClamping(t *testing.T) {
	p := PaletteByName("ember")

	if p.At(-0.5) != p.At(0) {
		t.Fatal("below-range position not clamped to the first stop")
	}
	if p.At(1.5) != p.At(1) {
		t.Fatal("above-range position not clamped to the last stop")
	}

	mid := p.At(0.5)
	if mid == p.At(0) || mid == p.At(1) {
		t.Fatal("midpoint did not blend between stops")
	}
}

func TestPaletteBrightensTowardOne(t *testing.T) {
	for _, name := range PaletteNames() {
		p := PaletteByName(name)
		l0, _, _ := p.At(0).Luv()
		l1, _, _ := p.At(1).Luv()
		if l1 <= l0 {
			t.Errorf("palette %s does not brighten: L %v -> %v", name, l0, l1)
		}
	}
}

func TestEmptyPaletteIsSafe(t *testing.T) {
	var p Palette
	if got := p.At(0.5); got != (colorful.Color{}) {
		t.Fatalf("empty palette produced %v", got)
	}
}
