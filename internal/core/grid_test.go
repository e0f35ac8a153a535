package core

import "testing"

// collectCells expands regions into a set keyed by coordinate pair and fails
// the test on any duplicate cell across regions.
func collectCells(t *testing.T, regions []GridRegion) map[[2]int]bool {
	t.Helper()
	cells := make(map[[2]int]bool)
	for _, r := range regions {
		for c := r.ColFrom; c <= r.ColTo; c++ {
			for w := r.RowFrom; w <= r.RowTo; w++ {
				key := [2]int{c, w}
				if cells[key] {
					t.Fatalf("cell (%d,%d) produced by more than one region", c, w)
				}
				cells[key] = true
			}
		}
	}
	return cells
}

func TestGrowthRegions(t *testing.T) {
	tests := []struct {
		name               string
		oldCols, oldRows   int
		newCols, newRows   int
		wantRegions        int
		wantCells          int
		wantCell, skipCell [2]int // one cell that must / must not be produced
	}{
		{
			name:    "fresh grid",
			oldCols: 0, oldRows: 0, newCols: 3, newRows: 4,
			wantRegions: 1, wantCells: 12,
			wantCell: [2]int{3, 4}, skipCell: [2]int{4, 1},
		},
		{
			name:    "columns only",
			oldCols: 2, oldRows: 5, newCols: 4, newRows: 5,
			wantRegions: 1, wantCells: 10,
			wantCell: [2]int{3, 1}, skipCell: [2]int{2, 1},
		},
		{
			name:    "rows only",
			oldCols: 3, oldRows: 2, newCols: 3, newRows: 6,
			wantRegions: 1, wantCells: 12,
			wantCell: [2]int{1, 3}, skipCell: [2]int{1, 2},
		},
		{
			name:    "both axes adds corner",
			oldCols: 2, oldRows: 2, newCols: 4, newRows: 4,
			wantRegions: 3, wantCells: 12,
			wantCell: [2]int{4, 4}, skipCell: [2]int{2, 2},
		},
		{
			name:    "no growth",
			oldCols: 3, oldRows: 3, newCols: 3, newRows: 3,
			wantRegions: 0, wantCells: 0,
			wantCell: [2]int{0, 0}, skipCell: [2]int{1, 1},
		},
		{
			name:    "shrink produces nothing",
			oldCols: 5, oldRows: 5, newCols: 2, newRows: 5,
			wantRegions: 0, wantCells: 0,
			wantCell: [2]int{0, 0}, skipCell: [2]int{3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := growthRegions(tt.oldCols, tt.oldRows, tt.newCols, tt.newRows)
			if len(regions) != tt.wantRegions {
				t.Fatalf("expected %d regions, got %d: %+v", tt.wantRegions, len(regions), regions)
			}

			cells := collectCells(t, regions)
			if len(cells) != tt.wantCells {
				t.Errorf("expected %d cells, got %d", tt.wantCells, len(cells))
			}
			if tt.wantCells > 0 && !cells[tt.wantCell] {
				t.Errorf("expected cell %v to be produced", tt.wantCell)
			}
			if cells[tt.skipCell] {
				t.Errorf("cell %v must not be produced", tt.skipCell)
			}
		})
	}
}

// Growing both axes must yield exactly the complement of the old rectangle
// within the new one, for every cell.
func TestGrowthRegions_ComplementExactness(t *testing.T) {
	oldCols, oldRows := 2, 2
	newCols, newRows := 4, 4

	cells := collectCells(t, growthRegions(oldCols, oldRows, newCols, newRows))
	for c := 1; c <= newCols; c++ {
		for r := 1; r <= newRows; r++ {
			existing := c <= oldCols && r <= oldRows
			if existing && cells[[2]int{c, r}] {
				t.Errorf("cell (%d,%d) already exists but was re-produced", c, r)
			}
			if !existing && !cells[[2]int{c, r}] {
				t.Errorf("cell (%d,%d) is missing from the growth regions", c, r)
			}
		}
	}
}

func TestValidateGridBounds(t *testing.T) {
	tests := []struct {
		cols, rows int
		expectErr  bool
	}{
		{1, 1, false},
		{100, 100, false},
		{0, 5, true},
		{5, 0, true},
		{101, 5, true},
		{5, 101, true},
		{-1, -1, true},
	}
	for _, tt := range tests {
		err := validateGridBounds(tt.cols, tt.rows)
		if tt.expectErr && err == nil {
			t.Errorf("validateGridBounds(%d, %d): expected error, got nil", tt.cols, tt.rows)
		}
		if !tt.expectErr && err != nil {
			t.Errorf("validateGridBounds(%d, %d): unexpected error: %v", tt.cols, tt.rows, err)
		}
	}
}

func TestGridRegionCellCount(t *testing.T) {
	r := GridRegion{ColFrom: 3, ColTo: 5, RowFrom: 1, RowTo: 4}
	if n := r.CellCount(); n != 12 {
		t.Errorf("expected 12 cells, got %d", n)
	}
}
