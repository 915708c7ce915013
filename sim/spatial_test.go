package sim

import "testing"

func contains(refs []int, idx int) bool {
	for _, r := range refs {
		if r == idx {
			return true
		}
	}
	return false
}

func TestSpatialGridInsertAndQuery(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000)

	grid.Insert(Vec2{100, 100}, 10, 0)

	// Query around (100,100) should find it
	if !contains(grid.Query(Vec2{100, 100}, 50), 0) {
		t.Error("expected to find entity at (100,100)")
	}

	// Query far away should not find it
	if contains(grid.Query(Vec2{2500, 2500}, 50), 0) {
		t.Error("should not find entity at (2500,2500)")
	}
}

func TestSpatialGridClear(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000)

	grid.Insert(Vec2{500, 500}, 10, 0)
	grid.Clear()

	if results := grid.Query(Vec2{500, 500}, 100); len(results) != 0 {
		t.Errorf("expected 0 results after clear, got %d", len(results))
	}
}

func TestSpatialGridLargeBodyAcrossCells(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000)

	// A boss-sized body centred in one cell must be found from the next
	grid.Insert(Vec2{250, 250}, 60, 7)
	if !contains(grid.Query(Vec2{300, 300}, 5), 7) {
		t.Error("expected to find large body from a neighbouring cell")
	}
}

func TestSpatialGridBoundaryClamp(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000)

	// Negative coords should clamp to 0
	grid.Insert(Vec2{-10, -10}, 10, 0)
	if !contains(grid.Query(Vec2{0, 0}, 50), 0) {
		t.Error("expected to find entity inserted at negative coords")
	}

	// Beyond world edge should clamp to max
	grid.Insert(Vec2{5000, 5000}, 10, 1)
	if !contains(grid.Query(Vec2{3000, 3000}, 50), 1) {
		t.Error("expected to find entity inserted beyond world edge")
	}
}

func TestSpatialGridMatchesBruteForce(t *testing.T) {
	cfg := DefaultConfig()
	s := NewRun(cfg, DefaultViewport(), 9)
	for i := 0; i < 200; i++ {
		dummy(s, Vec2{s.randRange(0, 3000), s.randRange(0, 3000)}, 10)
	}
	grid := NewSpatialGrid(3000, 3000)
	s.buildGrid(grid)

	q := Vec2{1500, 1500}
	r := 400.0
	got := grid.Query(q, r)
	for i, e := range s.Enemies {
		if Distance(e.Pos, q) <= r+e.Size/2 && !contains(got, i) {
			t.Errorf("enemy %d at %+v missed by the grid", i, e.Pos)
		}
	}
}
