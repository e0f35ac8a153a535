package core

// Grid dimensions are bounded to keep aisles physically plausible and the
// location count per resize bounded (100×100 = 10k cells worst case).
const (
	minGridDim = 1
	maxGridDim = 100
)

// GridRegion is an inclusive rectangle of (col, row) cells.
type GridRegion struct {
	ColFrom, ColTo int
	RowFrom, RowTo int
}

// CellCount returns the number of cells in the region.
func (r GridRegion) CellCount() int {
	return (r.ColTo - r.ColFrom + 1) * (r.RowTo - r.RowFrom + 1)
}

// validateGridBounds rejects dimensions outside [1, 100].
func validateGridBounds(cols, rows int) error {
	if cols < minGridDim || cols > maxGridDim {
		return validationf("columns must be between %d and %d, got %d", minGridDim, maxGridDim, cols)
	}
	if rows < minGridDim || rows > maxGridDim {
		return validationf("rows must be between %d and %d, got %d", minGridDim, maxGridDim, rows)
	}
	return nil
}

// growthRegions decomposes the cells to create when a grid grows from
// (oldCols, oldRows) to (newCols, newRows) into at most three disjoint
// rectangles: the column strip, the row strip, and the corner where both
// axes grew. A single cross-product over the new bounds would re-create
// existing cells; the complement region is computed explicitly instead.
//
// A fresh grid (oldCols == 0 && oldRows == 0) yields one full rectangle.
// Shrinking is not handled here: callers prune cells beyond the new bounds
// after creating these regions.
func growthRegions(oldCols, oldRows, newCols, newRows int) []GridRegion {
	if oldCols == 0 && oldRows == 0 {
		return []GridRegion{{ColFrom: 1, ColTo: newCols, RowFrom: 1, RowTo: newRows}}
	}

	var regions []GridRegion
	if newCols > oldCols {
		// New columns across the existing rows.
		regions = append(regions, GridRegion{
			ColFrom: oldCols + 1, ColTo: newCols,
			RowFrom: 1, RowTo: oldRows,
		})
	}
	if newRows > oldRows {
		// New rows across the existing columns.
		regions = append(regions, GridRegion{
			ColFrom: 1, ColTo: oldCols,
			RowFrom: oldRows + 1, RowTo: newRows,
		})
	}
	if newCols > oldCols && newRows > oldRows {
		// The corner rectangle covered by neither strip.
		regions = append(regions, GridRegion{
			ColFrom: oldCols + 1, ColTo: newCols,
			RowFrom: oldRows + 1, RowTo: newRows,
		})
	}
	return regions
}
