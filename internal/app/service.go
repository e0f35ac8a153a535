package app

import (
	"context"
	"io"

	"stocktake/internal/core"
	"stocktake/internal/export"
)

// ApplicationService is the single interface all adapters call. It owns
// authorization: every operation checks the actor's capability before
// touching a core service. Implementations must contain no display logic.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns the user profile by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// ListWarehouses returns the actor's company's active warehouses.
	ListWarehouses(ctx context.Context, actor core.Actor) (*WarehouseListResult, error)

	// GetWarehouse returns one warehouse of the actor's company.
	GetWarehouse(ctx context.Context, actor core.Actor, warehouseID int) (*core.Warehouse, error)

	// CreateWarehouse creates a warehouse for the actor's company.
	CreateWarehouse(ctx context.Context, actor core.Actor, req CreateWarehouseRequest) (*core.Warehouse, error)

	// ListGroups returns the company's classification groups.
	ListGroups(ctx context.Context, actor core.Actor) (*GroupListResult, error)

	// CreateGroup creates a group, optionally under a parent.
	CreateGroup(ctx context.Context, actor core.Actor, req CreateGroupRequest) (*core.Group, error)

	// UpdateGroup renames and/or reparents a group.
	UpdateGroup(ctx context.Context, actor core.Actor, groupID int, req UpdateGroupRequest) (*core.Group, error)

	// DeleteGroup removes a group; its children are reparented to the root.
	DeleteGroup(ctx context.Context, actor core.Actor, groupID int) error

	// ListProducts returns the company's product catalog.
	ListProducts(ctx context.Context, actor core.Actor) (*ProductListResult, error)

	// CreateProduct creates one catalog entry.
	CreateProduct(ctx context.Context, actor core.Actor, input core.ProductInput) (*core.Product, error)

	// ImportProducts reads a tabular product file and creates the parsed
	// rows. Failures are per-row; the import never aborts on a bad row.
	ImportProducts(ctx context.Context, actor core.Actor, r io.Reader, loc export.Locale) (*ImportResult, error)

	// ResolveScan translates a scanned code into a product of the actor's
	// company.
	ResolveScan(ctx context.Context, actor core.Actor, code string) (*core.Product, error)

	// ListAisles returns a warehouse's aisles with their grid bounds.
	ListAisles(ctx context.Context, actor core.Actor, warehouseID int) (*AisleListResult, error)

	// CreateAisles creates aisles and their full location grids in one
	// transaction.
	CreateAisles(ctx context.Context, actor core.Actor, warehouseID int, inputs []core.AisleInput) (*AisleListResult, error)

	// UpdateAisle renames and/or resizes an aisle.
	UpdateAisle(ctx context.Context, actor core.Actor, aisleID int, update core.AisleUpdate) (*core.Aisle, error)

	// DeleteAisle removes an aisle and its locations.
	DeleteAisle(ctx context.Context, actor core.Actor, aisleID int) error

	// GetGrid returns the aisle's location grid, each cell flagged with
	// whether the given session has observations there (0 for none).
	GetGrid(ctx context.Context, actor core.Actor, aisleID, stocktakingID int) (*GridResult, error)

	// CreateStocktaking opens a counting session for a warehouse.
	CreateStocktaking(ctx context.Context, actor core.Actor, warehouseID int) (*core.Stocktaking, error)

	// ListStocktakings returns the company's sessions, optionally filtered
	// by status.
	ListStocktakings(ctx context.Context, actor core.Actor, status *core.SessionStatus) (*StocktakingListResult, error)

	// GetStocktaking returns one session.
	GetStocktaking(ctx context.Context, actor core.Actor, sessionID int) (*core.Stocktaking, error)

	// RecordScan resolves the scanned product code and accumulates the scan
	// into the session.
	RecordScan(ctx context.Context, actor core.Actor, sessionID int, req RecordScanRequest) (*core.Observation, error)

	// ResetLocation wipes the session's observations at one location.
	ResetLocation(ctx context.Context, actor core.Actor, sessionID, locationID int) error

	// FinalizeStocktaking closes the session with the given notes.
	FinalizeStocktaking(ctx context.Context, actor core.Actor, sessionID int, notes string) (*core.Stocktaking, error)

	// DeleteStocktaking removes a session and everything recorded under it.
	DeleteStocktaking(ctx context.Context, actor core.Actor, sessionID int) error

	// GetSessionReport returns the observation report with rendered
	// location paths and the flat monetary total.
	GetSessionReport(ctx context.Context, actor core.Actor, sessionID int) (*core.SessionReport, error)

	// WriteSessionExport streams the observation report as a tabular file
	// with localized headers.
	WriteSessionExport(ctx context.Context, actor core.Actor, sessionID int, loc export.Locale, w io.Writer) (*core.Stocktaking, error)

	// ImportBaseline reads a tabular expected-stock file into the session's
	// baseline, with the same per-row failure semantics as ImportProducts.
	ImportBaseline(ctx context.Context, actor core.Actor, sessionID int, r io.Reader, loc export.Locale) (*ImportResult, error)

	// GetVariance reconciles observations against the imported baseline.
	GetVariance(ctx context.Context, actor core.Actor, sessionID int) (*VarianceResult, error)
}
