package object

import (
	"fmt"
)

// Label is a short-lived piece of text anchored to a world position, drifting
// slowly upward. Used for score popups when salvage is collected or a bounty
// is awarded. Draw must run after the canvas has been rendered so the text
// sits on top of the half-block output; loops collect labels during the
// object pass and draw them last.
type Label struct {
	X, Y     float64 // World position (center of the text)
	VY       float64 // Vertical drift in world units/sec (negative = upward)
	Value    string
	Lifetime float64 // Seconds remaining
}

// NewLabel creates a floating label at the given world position.
func NewLabel(x, y float64, value string, lifetime float64) *Label {
	return &Label{
		X:        x,
		Y:        y,
		VY:       -3.0,
		Value:    value,
		Lifetime: lifetime,
	}
}

// Update drifts the label and counts down its lifetime.
func (l *Label) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	l.Lifetime -= dt
	if l.Lifetime <= 0 {
		return true, nil
	}

	l.Y += l.VY * dt
	ctx.Screen.WrapPosition(&l.X, &l.Y)

	return false, nil
}

// positionedWriter is implemented by writers that place text at 1-based
// canvas coordinates with the centering offset applied (draw.ChunkWriter).
type positionedWriter interface {
	WriteAt(col, row int, s string)
}

// Draw writes the label at its screen position and marks the covered cells
// dirty so the canvas repaints them once the label moves or expires.
func (l *Label) Draw(ctx DrawContext) error {
	if l.Value == "" {
		return nil
	}

	termWidth := ctx.Canvas.TerminalWidth()
	termHeight := ctx.Canvas.TerminalHeight()

	positions := WorldToScreen(l.X, l.Y, ctx.Camera, ctx.View, ctx.World)
	for i := 0; i < positions.Count; i++ {
		pos := positions.Positions[i]

		col, row := ctx.Canvas.LogicalToTerminal(pos.X, pos.Y)
		col -= len(l.Value) / 2

		if row < 1 || row > termHeight {
			continue
		}
		if col < 1 || col+len(l.Value) > termWidth {
			continue
		}

		if pw, ok := ctx.Writer.(positionedWriter); ok {
			pw.WriteAt(col, row, l.Value)
		} else {
			fmt.Fprintf(ctx.Writer, "\033[%d;%dH%s", row, col, l.Value)
		}
		ctx.Canvas.MarkTextDirty(col, row, len(l.Value))
	}

	return nil
}
