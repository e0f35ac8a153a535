package app

import (
	"stocktake/internal/core"
	"stocktake/internal/export"
)

// UserSession is the authenticated identity handed to the web adapter for
// token issuance.
type UserSession struct {
	UserID    int    `json:"user_id"`
	CompanyID int    `json:"company_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse `json:"warehouses"`
}

// GroupListResult is returned by ListGroups.
type GroupListResult struct {
	Groups []core.Group `json:"groups"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// AisleListResult is returned by ListAisles and CreateAisles.
type AisleListResult struct {
	Aisles []core.AisleWithBounds `json:"aisles"`
}

// GridResult is returned by GetGrid.
type GridResult struct {
	AisleID int             `json:"aisle_id"`
	Cells   []core.GridCell `json:"cells"`
}

// StocktakingListResult is returned by ListStocktakings.
type StocktakingListResult struct {
	Stocktakings []core.Stocktaking `json:"stocktakings"`
}

// ImportResult summarizes a tabular import: rows that landed and rows that
// failed, each failure with its 1-indexed file row.
type ImportResult struct {
	ReportID string            `json:"report_id"`
	Imported int               `json:"imported"`
	Failures []export.RowError `json:"failures,omitempty"`
}

// VarianceResult is returned by GetVariance.
type VarianceResult struct {
	Stocktaking *core.Stocktaking   `json:"stocktaking"`
	Lines       []core.VarianceLine `json:"lines"`
}
