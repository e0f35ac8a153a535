package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"stocktake/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) (*pgxpool.Pool, context.Context) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed. Two companies so cross-tenant checks have a foreign
	// side to trip over.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_baselines, stocktaking_lines, stocktakings, locations, aisles,
			products, groups, warehouses, users, companies RESTART IDENTITY CASCADE;

		INSERT INTO companies (id, company_code, name, base_currency) VALUES
		(1, '1000', 'Test Company', 'EUR'),
		(2, '2000', 'Other Company', 'EUR');

		INSERT INTO users (id, company_id, username, password_hash, role) VALUES
		(1, 1, 'counter', 'not-a-real-hash', 'operator'),
		(2, 2, 'stranger', 'not-a-real-hash', 'operator');

		INSERT INTO warehouses (id, company_id, code, name) VALUES
		(1, 1, 'MAIN', 'Main Warehouse'),
		(2, 2, 'FAR',  'Foreign Warehouse');

		INSERT INTO products (id, company_id, code, description, unit, price) VALUES
		(1, 1, 'P001', 'Widget A', 'unit', 2.00),
		(2, 1, 'P002', 'Widget B', 'unit', 3.00),
		(3, 2, 'GHOST', 'Foreign Widget', 'unit', 1.00);

		SELECT setval('companies_id_seq', 10);
		SELECT setval('users_id_seq', 10);
		SELECT setval('warehouses_id_seq', 10);
		SELECT setval('products_id_seq', 10);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool, ctx
}

// countLocations returns how many location rows the aisle currently has.
func countLocations(t *testing.T, ctx context.Context, pool *pgxpool.Pool, aisleID int) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM locations WHERE aisle_id = $1", aisleID,
	).Scan(&n); err != nil {
		t.Fatalf("Failed to count locations: %v", err)
	}
	return n
}

func createAisle(t *testing.T, ctx context.Context, svc core.AisleService, code string, cols, rows int) core.Aisle {
	t.Helper()
	aisles, err := svc.CreateAisles(ctx, 1, 1, []core.AisleInput{
		{Code: code, Columns: cols, Rows: rows},
	})
	if err != nil {
		t.Fatalf("CreateAisles failed: %v", err)
	}
	if len(aisles) != 1 {
		t.Fatalf("Expected 1 aisle, got %d", len(aisles))
	}
	return aisles[0]
}

func TestAisles_CreateGridExactness(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	aisle := createAisle(t, ctx, svc, "A1", 3, 4)

	if got := countLocations(t, ctx, pool, aisle.ID); got != 12 {
		t.Errorf("Expected 12 locations for 3x4 grid, got %d", got)
	}

	// Every coordinate within bounds exists exactly once.
	var distinct int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT (col, row)) FROM locations
		WHERE aisle_id = $1 AND col BETWEEN 1 AND 3 AND row BETWEEN 1 AND 4
	`, aisle.ID).Scan(&distinct)
	if err != nil {
		t.Fatalf("Failed to query coordinates: %v", err)
	}
	if distinct != 12 {
		t.Errorf("Expected 12 distinct in-bounds coordinates, got %d", distinct)
	}
}

func TestAisles_GrowPreservesExistingCells(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	aisle := createAisle(t, ctx, svc, "A1", 2, 2)

	var originalID int
	if err := pool.QueryRow(ctx,
		"SELECT id FROM locations WHERE aisle_id = $1 AND col = 1 AND row = 1", aisle.ID,
	).Scan(&originalID); err != nil {
		t.Fatalf("Failed to fetch location: %v", err)
	}

	cols, rows := 4, 4
	if _, err := svc.UpdateAisle(ctx, 1, aisle.ID, core.AisleUpdate{Columns: &cols, Rows: &rows}); err != nil {
		t.Fatalf("UpdateAisle failed: %v", err)
	}

	if got := countLocations(t, ctx, pool, aisle.ID); got != 16 {
		t.Errorf("Expected 16 locations after growing 2x2 to 4x4, got %d", got)
	}

	// The pre-existing cell keeps its identity across the grow.
	var afterID int
	if err := pool.QueryRow(ctx,
		"SELECT id FROM locations WHERE aisle_id = $1 AND col = 1 AND row = 1", aisle.ID,
	).Scan(&afterID); err != nil {
		t.Fatalf("Failed to refetch location: %v", err)
	}
	if afterID != originalID {
		t.Errorf("Location (1,1) changed identity across resize: %d -> %d", originalID, afterID)
	}
}

func TestAisles_ResizeToSameSizeIsNoop(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	aisle := createAisle(t, ctx, svc, "A1", 3, 3)

	var maxID int
	if err := pool.QueryRow(ctx,
		"SELECT MAX(id) FROM locations WHERE aisle_id = $1", aisle.ID,
	).Scan(&maxID); err != nil {
		t.Fatalf("Failed to fetch max id: %v", err)
	}

	cols, rows := 3, 3
	if _, err := svc.UpdateAisle(ctx, 1, aisle.ID, core.AisleUpdate{Columns: &cols, Rows: &rows}); err != nil {
		t.Fatalf("UpdateAisle failed: %v", err)
	}

	var maxAfter int
	if err := pool.QueryRow(ctx,
		"SELECT MAX(id) FROM locations WHERE aisle_id = $1", aisle.ID,
	).Scan(&maxAfter); err != nil {
		t.Fatalf("Failed to refetch max id: %v", err)
	}
	if got := countLocations(t, ctx, pool, aisle.ID); got != 9 {
		t.Errorf("Expected 9 locations, got %d", got)
	}
	if maxAfter != maxID {
		t.Errorf("No-op resize created rows: max id %d -> %d", maxID, maxAfter)
	}
}

func TestAisles_ShrinkPrunesAndCascadesObservations(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	aisleSvc := core.NewAisleService(pool)
	locSvc := core.NewLocationService(pool)
	stSvc := core.NewStocktakingService(pool)

	aisle := createAisle(t, ctx, aisleSvc, "A1", 3, 3)

	corner, err := locSvc.Lookup(ctx, 1, aisle.ID, 3, 3)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	session, err := stSvc.CreateSession(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	_, err = stSvc.RecordScan(ctx, 1, session.ID, core.ScanInput{
		ProductID:  1,
		LocationID: corner.ID,
		Quantity:   decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}

	cols, rows := 2, 2
	if _, err := aisleSvc.UpdateAisle(ctx, 1, aisle.ID, core.AisleUpdate{Columns: &cols, Rows: &rows}); err != nil {
		t.Fatalf("UpdateAisle failed: %v", err)
	}

	if got := countLocations(t, ctx, pool, aisle.ID); got != 4 {
		t.Errorf("Expected 4 locations after shrinking 3x3 to 2x2, got %d", got)
	}

	// The observation at the pruned cell went with it.
	obs, err := stSvc.GetObservations(ctx, 1, session.ID)
	if err != nil {
		t.Fatalf("GetObservations failed: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("Expected observations at pruned location to cascade away, got %d rows", len(obs))
	}
}

func TestWarehouses_GetIsTenantScoped(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewWarehouseService(pool)

	warehouse, err := svc.GetWarehouse(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetWarehouse failed: %v", err)
	}
	if warehouse.Code != "MAIN" {
		t.Errorf("Expected warehouse MAIN, got %s", warehouse.Code)
	}

	// Warehouse 2 belongs to company 2 and is indistinguishable from absent.
	if _, err := svc.GetWarehouse(ctx, 1, 2); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign warehouse, got %v", err)
	}
}

func TestLocations_OrderedRowThenColumn(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	aisleSvc := core.NewAisleService(pool)
	locSvc := core.NewLocationService(pool)
	stSvc := core.NewStocktakingService(pool)

	// Non-square so a column-major ordering bug cannot hide.
	aisle := createAisle(t, ctx, aisleSvc, "A1", 3, 2)

	locations, err := locSvc.AllForAisle(ctx, 1, aisle.ID)
	if err != nil {
		t.Fatalf("AllForAisle failed: %v", err)
	}
	expected := [][2]int{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {2, 2}, {3, 2}}
	if len(locations) != len(expected) {
		t.Fatalf("Expected %d locations, got %d", len(expected), len(locations))
	}
	for i, want := range expected {
		if locations[i].Col != want[0] || locations[i].Row != want[1] {
			t.Errorf("Position %d: expected (%d,%d), got (%d,%d)",
				i, want[0], want[1], locations[i].Col, locations[i].Row)
		}
	}

	// The grid view keeps the same order and flags only the scanned cell.
	session, err := stSvc.CreateSession(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	scanned, err := locSvc.Lookup(ctx, 1, aisle.ID, 2, 2)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	_, err = stSvc.RecordScan(ctx, 1, session.ID, core.ScanInput{
		ProductID: 1, LocationID: scanned.ID, Quantity: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}

	cells, err := locSvc.Grid(ctx, 1, aisle.ID, session.ID)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(cells) != len(expected) {
		t.Fatalf("Expected %d grid cells, got %d", len(expected), len(cells))
	}
	for i, want := range expected {
		if cells[i].Col != want[0] || cells[i].Row != want[1] {
			t.Errorf("Grid position %d: expected (%d,%d), got (%d,%d)",
				i, want[0], want[1], cells[i].Col, cells[i].Row)
		}
		wantObs := cells[i].ID == scanned.ID
		if cells[i].HasObservations != wantObs {
			t.Errorf("Cell (%d,%d): expected has_observations=%t, got %t",
				cells[i].Col, cells[i].Row, wantObs, cells[i].HasObservations)
		}
	}
}

func TestAisles_DuplicateCodeFailsBatch(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	createAisle(t, ctx, svc, "A1", 2, 2)

	_, err := svc.CreateAisles(ctx, 1, 1, []core.AisleInput{
		{Code: "B1", Columns: 2, Rows: 2},
		{Code: "A1", Columns: 2, Rows: 2},
	})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("Expected ErrConflict for duplicate code, got %v", err)
	}

	// The whole batch rolled back: B1 must not exist.
	var n int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM aisles WHERE warehouse_id = 1",
	).Scan(&n); err != nil {
		t.Fatalf("Failed to count aisles: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected only the original aisle to survive, got %d", n)
	}
}

func TestAisles_CrossTenantForbidden(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	// Warehouse 2 belongs to company 2.
	_, err := svc.CreateAisles(ctx, 1, 2, []core.AisleInput{
		{Code: "A1", Columns: 2, Rows: 2},
	})
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for foreign warehouse, got %v", err)
	}
}

func TestAisles_GridBoundsRejected(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewAisleService(pool)

	_, err := svc.CreateAisles(ctx, 1, 1, []core.AisleInput{
		{Code: "A1", Columns: 0, Rows: 5},
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Expected ErrValidation for zero columns, got %v", err)
	}

	_, err = svc.CreateAisles(ctx, 1, 1, []core.AisleInput{
		{Code: "A1", Columns: 5, Rows: 101},
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Expected ErrValidation for 101 rows, got %v", err)
	}
}
