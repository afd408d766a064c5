package physics

import (
	"math"
	"sort"
	"testing"
)

func TestDistance(t *testing.T) {
	if got := Distance(0, 0, 3, 4); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance(0,0,3,4) = %f, want 5", got)
	}
	if got := DistanceSquared(0, 0, 3, 4); math.Abs(got-25) > 1e-9 {
		t.Errorf("DistanceSquared(0,0,3,4) = %f, want 25", got)
	}
}

func TestPointInCircle(t *testing.T) {
	if !PointInCircle(1, 1, 0, 0, 2) {
		t.Error("point inside circle reported outside")
	}
	if PointInCircle(3, 0, 0, 0, 2) {
		t.Error("point outside circle reported inside")
	}
	// Boundary counts as inside.
	if !PointInCircle(2, 0, 0, 0, 2) {
		t.Error("point on circle edge reported outside")
	}
}

func TestCirclesOverlap(t *testing.T) {
	if !CirclesOverlap(0, 0, 2, 3, 0, 2) {
		t.Error("overlapping circles reported apart")
	}
	if CirclesOverlap(0, 0, 1, 3, 0, 1) {
		t.Error("separated circles reported overlapping")
	}
	// Exactly touching circles do not overlap.
	if CirclesOverlap(0, 0, 1, 2, 0, 1) {
		t.Error("touching circles reported overlapping")
	}
}

func queryIndices(g *SpatialGrid, x, y float64) []int {
	var found []int
	g.QueryAround(x, y, func(index int) bool {
		found = append(found, index)
		return false
	})
	sort.Ints(found)
	return found
}

func TestSpatialGridFindsNeighbors(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	g.Insert(5, 5, 1)
	g.Insert(12, 5, 2)  // adjacent cell
	g.Insert(55, 55, 3) // far away

	found := queryIndices(g, 5, 5)
	if len(found) != 2 || found[0] != 1 || found[1] != 2 {
		t.Errorf("QueryAround(5,5) = %v, want [1 2]", found)
	}
}

func TestSpatialGridWrapsEdges(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	g.Insert(99, 99, 1)

	// The opposite corner sees it through the wrap.
	found := queryIndices(g, 1, 1)
	if len(found) != 1 || found[0] != 1 {
		t.Errorf("QueryAround(1,1) = %v, want [1]", found)
	}
}

func TestSpatialGridEarlyStop(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	for i := 0; i < 5; i++ {
		g.Insert(5, 5, i)
	}

	calls := 0
	g.QueryAround(5, 5, func(index int) bool {
		calls++
		return true
	})
	if calls != 1 {
		t.Errorf("early-stop query made %d calls, want 1", calls)
	}
}

func TestSpatialGridClear(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	g.Insert(5, 5, 1)
	g.Clear()

	if found := queryIndices(g, 5, 5); len(found) != 0 {
		t.Errorf("query after Clear = %v, want empty", found)
	}
}

func TestSpatialGridClampsOutOfRange(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	// Positions outside the world clamp to the border cells instead of panicking.
	g.Insert(-5, -5, 1)
	g.Insert(150, 150, 2)

	if found := queryIndices(g, 0, 0); len(found) == 0 {
		t.Error("clamped insert at negative position not found near origin")
	}
	if found := queryIndices(g, 99, 99); len(found) == 0 {
		t.Error("clamped insert past world bounds not found near far corner")
	}
}
