package draw

import (
	"bytes"
	"strings"
	"testing"
)

func render(c *Canvas) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}

func TestFirstRenderSkipsBlankCells(t *testing.T) {
	c := NewCanvas(10, 5)
	if out := render(c); out != "" {
		t.Fatalf("empty canvas emitted %q", out)
	}
}

func TestRenderEmitsOnlyChanges(t *testing.T) {
	c := NewCanvas(10, 5)
	render(c)

	c.Set(3, 2)
	out := render(c)
	if !strings.ContainsRune(out, BlockUpperHalf) {
		t.Fatalf("pixel frame %q missing the half block", out)
	}
	if !strings.Contains(out, "\033[2;4H") {
		t.Fatalf("pixel frame %q places the cursor wrong", out)
	}

	// Same content again: nothing to send.
	c.Clear()
	c.Set(3, 2)
	if out := render(c); out != "" {
		t.Fatalf("unchanged frame emitted %q", out)
	}
}

func TestClearedCellsAreErased(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Set(3, 2)
	render(c)

	c.Clear()
	out := render(c)
	if !strings.Contains(out, "\033[2;4H ") {
		t.Fatalf("erase frame %q does not blank the old cell", out)
	}
}

func TestPixelsWinOverUnderlay(t *testing.T) {
	c := NewCanvas(10, 5)
	c.SetCell(3, 1, 'x', 100)
	out := render(c)
	if !strings.Contains(out, "\033[38;5;100m") || !strings.ContainsRune(out, 'x') {
		t.Fatalf("underlay frame %q missing colored glyph", out)
	}
	if !strings.HasSuffix(out, ColorReset) {
		t.Fatalf("colored frame %q does not reset the foreground", out)
	}

	// A pixel in the same cell covers the glyph.
	c.Set(3, 2)
	out = render(c)
	if !strings.ContainsRune(out, BlockUpperHalf) {
		t.Fatalf("composite frame %q missing the half block", out)
	}
	if strings.ContainsRune(out, 'x') {
		t.Fatalf("composite frame %q still shows the covered glyph", out)
	}
}

func TestBothHalvesMakeFullBlock(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Set(4, 2)
	c.Set(4, 3)
	out := render(c)
	if !strings.ContainsRune(out, BlockFull) {
		t.Fatalf("frame %q missing the full block", out)
	}
}

func TestMarkTextDirtyForcesRepaint(t *testing.T) {
	c := NewCanvas(10, 5)
	c.SetCell(2, 1, 'h', 0)
	c.SetCell(3, 1, 'i', 0)
	render(c)

	// Unchanged content normally stays silent.
	c.SetCell(2, 1, 'h', 0)
	c.SetCell(3, 1, 'i', 0)
	if out := render(c); out != "" {
		t.Fatalf("unchanged underlay emitted %q", out)
	}

	// An overlay wrote over row 2; those cells must repaint.
	c.SetCell(2, 1, 'h', 0)
	c.SetCell(3, 1, 'i', 0)
	c.MarkTextDirty(3, 2, 2)
	out := render(c)
	if !strings.ContainsRune(out, 'h') || !strings.ContainsRune(out, 'i') {
		t.Fatalf("dirty repaint %q missing the glyphs", out)
	}
}

func TestForceRedrawRepaintsNonBlank(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Set(3, 2)
	render(c)

	c.ForceRedraw()
	c.Set(3, 2)
	out := render(c)
	if !strings.ContainsRune(out, BlockUpperHalf) {
		t.Fatalf("forced frame %q missing the half block", out)
	}
}

func TestResizeKeepsLogicalSpace(t *testing.T) {
	c := NewScaledCanvas(80, 25, 160, 50)
	c.Resize(160, 50)

	if c.LogicalWidth() != 160 || c.LogicalHeight() != 50 {
		t.Fatalf("logical size changed: %vx%v", c.LogicalWidth(), c.LogicalHeight())
	}
	if c.TerminalWidth() != 160 || c.TerminalHeight() != 50 {
		t.Fatalf("terminal size = %dx%d", c.TerminalWidth(), c.TerminalHeight())
	}
}

func TestOffsetsShiftCursorAddressing(t *testing.T) {
	c := NewCanvas(10, 5)
	c.SetOffset(4, 2)
	c.Set(0, 0)
	out := render(c)
	if !strings.Contains(out, "\033[3;5H") {
		t.Fatalf("offset frame %q, want cursor at row 3 col 5", out)
	}
}
