package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// aisleCodePattern: exactly two alphanumeric characters.
var aisleCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{2}$`)

// AisleInput describes one aisle to create, with its initial grid size.
type AisleInput struct {
	Code    string `json:"code"`
	GroupID *int   `json:"group_id,omitempty"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
}

// AisleUpdate carries the PATCH semantics of an aisle change: every field is
// optional, and a missing grid dimension leaves that axis untouched.
type AisleUpdate struct {
	Code    *string `json:"code,omitempty"`
	GroupID *int    `json:"group_id,omitempty"`
	Columns *int    `json:"columns,omitempty"`
	Rows    *int    `json:"rows,omitempty"`
}

// AisleService materializes and resizes the location grid per aisle.
type AisleService interface {
	// CreateAisles creates the given aisles and their full location grids in
	// one transaction. A duplicate code within the warehouse fails the batch
	// with ErrConflict.
	CreateAisles(ctx context.Context, companyID, warehouseID int, inputs []AisleInput) ([]Aisle, error)

	// UpdateAisle renames and/or resizes an aisle. Resizing creates exactly
	// the missing cells within the new bounds and prunes every cell beyond
	// them, as one atomic unit. Resizing to the current size is a no-op.
	UpdateAisle(ctx context.Context, companyID, aisleID int, update AisleUpdate) (*Aisle, error)

	// GetAisles lists the aisles of a warehouse with their current grid bounds.
	GetAisles(ctx context.Context, companyID, warehouseID int) ([]AisleWithBounds, error)

	// DeleteAisle removes an aisle; its locations cascade away with it.
	DeleteAisle(ctx context.Context, companyID, aisleID int) error
}

// AisleWithBounds is an aisle plus its current maximum grid coordinates.
type AisleWithBounds struct {
	Aisle
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

type aisleService struct {
	pool *pgxpool.Pool
}

func NewAisleService(pool *pgxpool.Pool) AisleService {
	return &aisleService{pool: pool}
}

func validateAisleCode(code string) error {
	if !aisleCodePattern.MatchString(code) {
		return validationf("aisle code must be 2 alphanumeric characters, got %q", code)
	}
	return nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// lookup helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// checkWarehouse verifies the warehouse exists and belongs to the company.
func checkWarehouse(ctx context.Context, q pgxQuerier, companyID, warehouseID int) error {
	var ownerID int
	err := q.QueryRow(ctx, "SELECT company_id FROM warehouses WHERE id = $1", warehouseID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundf("warehouse %d", warehouseID)
		}
		return fmt.Errorf("failed to resolve warehouse: %w", err)
	}
	if ownerID != companyID {
		return forbiddenf("warehouse %d belongs to another company", warehouseID)
	}
	return nil
}

// insertRegion creates every location of one grid region with a single
// generate_series cross join, keeping the per-region insert one round trip.
func insertRegion(ctx context.Context, tx pgx.Tx, aisleID int, r GridRegion) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO locations (aisle_id, col, row)
		SELECT $1, c, r
		FROM generate_series($2::int, $3::int) AS c,
		     generate_series($4::int, $5::int) AS r
	`, aisleID, r.ColFrom, r.ColTo, r.RowFrom, r.RowTo)
	if err != nil {
		if isUniqueViolation(err) {
			return conflictf("location coordinates already exist in aisle %d", aisleID)
		}
		return fmt.Errorf("failed to insert locations: %w", err)
	}
	return nil
}

func (s *aisleService) CreateAisles(ctx context.Context, companyID, warehouseID int, inputs []AisleInput) ([]Aisle, error) {
	if len(inputs) == 0 {
		return nil, validationf("at least one aisle required")
	}
	for i, in := range inputs {
		if err := validateAisleCode(in.Code); err != nil {
			return nil, fmt.Errorf("aisle %d: %w", i+1, err)
		}
		if err := validateGridBounds(in.Columns, in.Rows); err != nil {
			return nil, fmt.Errorf("aisle %d: %w", i+1, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkWarehouse(ctx, tx, companyID, warehouseID); err != nil {
		return nil, err
	}

	var created []Aisle
	for _, in := range inputs {
		var a Aisle
		err := tx.QueryRow(ctx, `
			INSERT INTO aisles (warehouse_id, code, group_id)
			VALUES ($1, UPPER($2), $3)
			RETURNING id, warehouse_id, code, group_id, created_at
		`, warehouseID, in.Code, in.GroupID).Scan(&a.ID, &a.WarehouseID, &a.Code, &a.GroupID, &a.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, conflictf("aisle code %s already exists in warehouse %d", strings.ToUpper(in.Code), warehouseID)
			}
			return nil, fmt.Errorf("failed to insert aisle %s: %w", in.Code, err)
		}

		for _, region := range growthRegions(0, 0, in.Columns, in.Rows) {
			if err := insertRegion(ctx, tx, a.ID, region); err != nil {
				return nil, err
			}
		}
		created = append(created, a)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit aisle creation: %w", err)
	}
	return created, nil
}

func (s *aisleService) UpdateAisle(ctx context.Context, companyID, aisleID int, update AisleUpdate) (*Aisle, error) {
	if update.Code != nil {
		if err := validateAisleCode(*update.Code); err != nil {
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := lockAisle(ctx, tx, companyID, aisleID)
	if err != nil {
		return nil, err
	}

	if update.Code != nil || update.GroupID != nil {
		code := a.Code
		if update.Code != nil {
			code = strings.ToUpper(*update.Code)
		}
		groupID := a.GroupID
		if update.GroupID != nil {
			groupID = update.GroupID
		}
		err := tx.QueryRow(ctx, `
			UPDATE aisles SET code = $1, group_id = $2 WHERE id = $3
			RETURNING code, group_id
		`, code, groupID, aisleID).Scan(&a.Code, &a.GroupID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, conflictf("aisle code %s already exists in warehouse %d", code, a.WarehouseID)
			}
			return nil, fmt.Errorf("failed to update aisle: %w", err)
		}
	}

	if update.Columns != nil || update.Rows != nil {
		if err := s.resizeGrid(ctx, tx, aisleID, update.Columns, update.Rows); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit aisle update: %w", err)
	}
	return a, nil
}

// lockAisle fetches an aisle FOR UPDATE and verifies company ownership
// through its warehouse.
func lockAisle(ctx context.Context, tx pgx.Tx, companyID, aisleID int) (*Aisle, error) {
	var a Aisle
	var ownerID int
	err := tx.QueryRow(ctx, `
		SELECT a.id, a.warehouse_id, a.code, a.group_id, a.created_at, w.company_id
		FROM aisles a
		JOIN warehouses w ON w.id = a.warehouse_id
		WHERE a.id = $1
		FOR UPDATE OF a
	`, aisleID).Scan(&a.ID, &a.WarehouseID, &a.Code, &a.GroupID, &a.CreatedAt, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("aisle %d", aisleID)
		}
		return nil, fmt.Errorf("failed to resolve aisle: %w", err)
	}
	if ownerID != companyID {
		return nil, forbiddenf("aisle %d belongs to another company", aisleID)
	}
	return &a, nil
}

// resizeGrid applies the three-pass grow plus unconditional prune inside the
// caller's transaction. A nil dimension keeps that axis at its current
// maximum observed coordinate.
func (s *aisleService) resizeGrid(ctx context.Context, tx pgx.Tx, aisleID int, newCols, newRows *int) error {
	var oldCols, oldRows int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(col), 0), COALESCE(MAX(row), 0)
		FROM locations WHERE aisle_id = $1
	`, aisleID).Scan(&oldCols, &oldRows)
	if err != nil {
		return fmt.Errorf("failed to read grid bounds: %w", err)
	}

	cols, rows := oldCols, oldRows
	if newCols != nil {
		cols = *newCols
	}
	if newRows != nil {
		rows = *newRows
	}
	if cols == oldCols && rows == oldRows {
		return nil
	}
	if err := validateGridBounds(cols, rows); err != nil {
		return err
	}

	for _, region := range growthRegions(oldCols, oldRows, cols, rows) {
		if err := insertRegion(ctx, tx, aisleID, region); err != nil {
			return err
		}
	}

	// Prune everything beyond the new bounds. Covers shrink in either axis
	// and trims stale cells from any previous larger size. Observations at
	// pruned locations cascade away via the FK.
	if _, err := tx.Exec(ctx, `
		DELETE FROM locations WHERE aisle_id = $1 AND (col > $2 OR row > $3)
	`, aisleID, cols, rows); err != nil {
		return fmt.Errorf("failed to prune out-of-bounds locations: %w", err)
	}
	return nil
}

func (s *aisleService) GetAisles(ctx context.Context, companyID, warehouseID int) ([]AisleWithBounds, error) {
	if err := checkWarehouse(ctx, s.pool, companyID, warehouseID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.warehouse_id, a.code, a.group_id, a.created_at,
		       COALESCE(MAX(l.col), 0), COALESCE(MAX(l.row), 0)
		FROM aisles a
		LEFT JOIN locations l ON l.aisle_id = a.id
		WHERE a.warehouse_id = $1
		GROUP BY a.id
		ORDER BY a.code
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aisles: %w", err)
	}
	defer rows.Close()

	var aisles []AisleWithBounds
	for rows.Next() {
		var a AisleWithBounds
		if err := rows.Scan(&a.ID, &a.WarehouseID, &a.Code, &a.GroupID, &a.CreatedAt, &a.Columns, &a.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan aisle: %w", err)
		}
		aisles = append(aisles, a)
	}
	return aisles, rows.Err()
}

func (s *aisleService) DeleteAisle(ctx context.Context, companyID, aisleID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockAisle(ctx, tx, companyID, aisleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM aisles WHERE id = $1", aisleID); err != nil {
		return fmt.Errorf("failed to delete aisle: %w", err)
	}
	return tx.Commit(ctx)
}
