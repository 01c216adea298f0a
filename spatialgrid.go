package gravitywalk

import (
	"math"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxQueryCells caps the cells a query walks, larger boxes fall back to a scan
const maxQueryCells = 4096

// CellKey is the integer coordinate of a cell
type CellKey struct {
	X, Y, Z int
}

// Cell lists the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// SpatialGrid is a uniform grid hashed into a fixed number of cells. Distinct
// cells may share a slot, queries only return candidates.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid creates a grid of numCells slots, rounded up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds bodyIndex to every cell overlapped by aabb. It reports false
// when the box covers too many cells to be indexed.
func (sg *SpatialGrid) Insert(bodyIndex int, aabb actor.AABB) bool {
	minCell, maxCell, count := sg.span(aabb)
	if count > maxQueryCells {
		return false
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}

	return true
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

// Query appends to out the indices stored in the cells overlapped by aabb,
// each once. seen must hold one flag per indexed body and is left cleared.
// ok is false when the box is too large to walk.
func (sg *SpatialGrid) Query(aabb actor.AABB, seen []bool, out []int) ([]int, bool) {
	minCell, maxCell, count := sg.span(aabb)
	if count > maxQueryCells {
		return out, false
	}

	start := len(out)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				for _, idx := range sg.cells[cellIdx].bodyIndices {
					if seen[idx] {
						continue
					}
					seen[idx] = true
					out = append(out, idx)
				}
			}
		}
	}

	for _, idx := range out[start:] {
		seen[idx] = false
	}

	return out, true
}

// span returns the cell range of aabb and the number of cells in it
func (sg *SpatialGrid) span(aabb actor.AABB) (CellKey, CellKey, int) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	count := 1
	for _, n := range []int{maxCell.X - minCell.X + 1, maxCell.Y - minCell.Y + 1, maxCell.Z - minCell.Z + 1} {
		count *= n
		if n <= 0 || count > maxQueryCells {
			return minCell, maxCell, maxQueryCells + 1
		}
	}

	return minCell, maxCell, count
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: cellCoord(pos.X(), sg.cellSize),
		Y: cellCoord(pos.Y(), sg.cellSize),
		Z: cellCoord(pos.Z(), sg.cellSize),
	}
}

// cellCoord clamps huge coordinates so they still convert to an int
func cellCoord(v, cellSize float64) int {
	const limit = 1 << 40
	return int(mgl64.Clamp(math.Floor(v/cellSize), -limit, limit))
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
