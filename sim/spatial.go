package sim

import "math"

const spatialCellSize = 128.0 // ~2x the largest non-boss enemy

// SpatialGrid is a uniform grid over the world for broad-phase enemy
// queries. Entries are indexes into WorldState.Enemies and are only valid
// until the next compaction.
type SpatialGrid struct {
	cols, rows int
	cells      [][]int
	maxHalf    float64 // largest inserted half-size, widens every query
}

// NewSpatialGrid creates a grid covering a w x h world.
func NewSpatialGrid(w, h float64) *SpatialGrid {
	cols := int(math.Ceil(w / spatialCellSize))
	rows := int(math.Ceil(h / spatialCellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{cols: cols, rows: rows, cells: make([][]int, cols*rows)}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.maxHalf = 0
}

func (g *SpatialGrid) cell(x, y float64) (int, int) {
	cx := int(math.Floor(x / spatialCellSize))
	cy := int(math.Floor(y / spatialCellSize))
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

// Insert adds an entry at the cell holding its centre.
func (g *SpatialGrid) Insert(p Vec2, half float64, idx int) {
	cx, cy := g.cell(p.X, p.Y)
	i := cy*g.cols + cx
	g.cells[i] = append(g.cells[i], idx)
	if half > g.maxHalf {
		g.maxHalf = half
	}
}

// QueryBuf appends every entry whose body may touch the circle (p, r) to
// buf and returns the extended slice. Each entry appears at most once.
func (g *SpatialGrid) QueryBuf(p Vec2, r float64, buf []int) []int {
	r += g.maxHalf
	minCX, minCY := g.cell(p.X-r, p.Y-r)
	maxCX, maxCY := g.cell(p.X+r, p.Y+r)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}

// Query is QueryBuf with a fresh slice.
func (g *SpatialGrid) Query(p Vec2, r float64) []int {
	return g.QueryBuf(p, r, nil)
}

func (s *WorldState) buildGrid(g *SpatialGrid) {
	g.Clear()
	for i := range s.Enemies {
		e := &s.Enemies[i]
		if e.Health <= 0 {
			continue
		}
		g.Insert(e.Pos, e.Size/2, i)
	}
}
