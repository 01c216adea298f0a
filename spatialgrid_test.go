package gravitywalk

import (
	"slices"
	"testing"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestWorldToCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		position mgl64.Vec3
		expected CellKey
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, CellKey{0, 0, 0}},
		{"positive", mgl64.Vec3{1.5, 2.3, 3.7}, CellKey{1, 2, 3}},
		{"negative", mgl64.Vec3{-1.5, -2.3, -3.7}, CellKey{-2, -3, -4}},
		{"fractional", mgl64.Vec3{0.5, 0.5, 0.5}, CellKey{0, 0, 0}},
		{"large", mgl64.Vec3{100.7, -200.3, 50.1}, CellKey{100, -201, 50}},
		{"clamped", mgl64.Vec3{1e300, -1e300, 0}, CellKey{1 << 40, -(1 << 40), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.worldToCell(tt.position)
			if result != tt.expected {
				t.Errorf("worldToCell(%v) = %v, want %v", tt.position, result, tt.expected)
			}
		})
	}
}

func TestHashCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16) // mask = 15

	tests := []struct {
		name     string
		key      CellKey
		expected int
	}{
		{"origin", CellKey{0, 0, 0}, 0},
		{"simple", CellKey{1, 2, 3}, 6},
		{"negative", CellKey{-1, -2, -3}, 10},
		{"large", CellKey{100, 200, 300}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCell(tt.key)
			if result < 0 || result >= len(grid.cells) {
				t.Errorf("hashCell(%v) = %d, out of range [0, %d)", tt.key, result, len(grid.cells))
			}
			if result != tt.expected {
				t.Errorf("hashCell(%v) = %d, want %d", tt.key, result, tt.expected)
			}
		})
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {16, 16}, {1000, 1024},
	}

	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func createTestBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.Body {
	return actor.NewBody(
		actor.NewTransformAt(position, mgl64.QuatIdent()),
		&actor.Box{HalfExtents: halfExtents},
		actor.MobilityStatic,
	)
}

func TestInsertAndQuery(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	bodies := []*actor.Body{
		createTestBox(mgl64.Vec3{1.0, 1.0, 1.0}, mgl64.Vec3{0.4, 0.4, 0.4}),
		createTestBox(mgl64.Vec3{5.0, 5.0, 5.0}, mgl64.Vec3{0.4, 0.4, 0.4}),
		createTestBox(mgl64.Vec3{-3.0, 1.0, 1.0}, mgl64.Vec3{0.4, 0.4, 0.4}),
	}
	for i, body := range bodies {
		if !grid.Insert(i, body.Shape.GetAABB()) {
			t.Fatalf("Insert(%d) refused a small box", i)
		}
	}

	seen := make([]bool, len(bodies))
	got, ok := grid.Query(actor.AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 2, 2}}, seen, nil)
	if !ok {
		t.Fatal("Query refused a small box")
	}
	if !slices.Contains(got, 0) {
		t.Errorf("Query = %v, want it to contain body 0", got)
	}

	// a body spanning many cells is reported once
	grid.Clear()
	grid.Insert(0, createTestBox(mgl64.Vec3{}, mgl64.Vec3{3, 3, 3}).Shape.GetAABB())
	got, _ = grid.Query(actor.AABB{Min: mgl64.Vec3{-3, -3, -3}, Max: mgl64.Vec3{3, 3, 3}}, seen[:1], nil)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Query = %v, want [0]", got)
	}
	if seen[0] {
		t.Error("Query must leave seen cleared")
	}
}

func TestClear(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	grid.Insert(0, createTestBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0.4, 0.4, 0.4}).Shape.GetAABB())

	grid.Clear()

	for _, cell := range grid.cells {
		if len(cell.bodyIndices) != 0 {
			t.Error("Cells should be empty after clear")
		}
	}
}

func TestBoundaryCases(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	// box exactly on the boundary between two cells
	body := createTestBox(mgl64.Vec3{1.0, 1.0, 1.0}, mgl64.Vec3{0.5, 0.5, 0.5})

	minCell, maxCell, count := grid.span(body.Shape.GetAABB())

	if maxCell.X-minCell.X != 1 || maxCell.Y-minCell.Y != 1 || maxCell.Z-minCell.Z != 1 {
		t.Errorf("Expected body to span 2 cells in each dimension, got %d, %d, %d",
			maxCell.X-minCell.X, maxCell.Y-minCell.Y, maxCell.Z-minCell.Z)
	}
	if count != 8 {
		t.Errorf("count = %d, want 8", count)
	}
}

func TestTooManyCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	huge := actor.AABB{Min: mgl64.Vec3{-100, -100, -100}, Max: mgl64.Vec3{100, 100, 100}}

	if grid.Insert(0, huge) {
		t.Error("Insert should refuse a box over too many cells")
	}
	for _, cell := range grid.cells {
		if len(cell.bodyIndices) != 0 {
			t.Fatal("a refused box must not be inserted")
		}
	}

	if _, ok := grid.Query(huge, []bool{false}, nil); ok {
		t.Error("Query should report a box over too many cells")
	}
}

func TestLargeBodySpanningManyCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	body := createTestBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5.0, 5.0, 5.0})

	grid.Insert(0, body.Shape.GetAABB())

	minCell := grid.worldToCell(body.Shape.GetAABB().Min)
	maxCell := grid.worldToCell(body.Shape.GetAABB().Max)

	expectedCells := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	actualCells := 0

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := grid.hashCell(CellKey{x, y, z})
				if slices.Contains(grid.cells[cellIdx].bodyIndices, 0) {
					actualCells++
				}
			}
		}
	}

	if actualCells != expectedCells {
		t.Errorf("Expected body in %d cells, found in %d cells", expectedCells, actualCells)
	}
}

func BenchmarkQuery(b *testing.B) {
	grid := NewSpatialGrid(1.0, 1024)
	for i := range 100 {
		pos := mgl64.Vec3{
			float64(i%10) * 2.0,
			float64((i/10)%10) * 2.0,
			0,
		}
		grid.Insert(i, createTestBox(pos, mgl64.Vec3{0.4, 0.4, 0.4}).Shape.GetAABB())
	}
	seen := make([]bool, 100)
	out := make([]int, 0, 100)
	box := actor.AABB{Min: mgl64.Vec3{4, 4, -1}, Max: mgl64.Vec3{8, 8, 1}}

	b.ResetTimer()
	for b.Loop() {
		out, _ = grid.Query(box, seen, out[:0])
	}
}
