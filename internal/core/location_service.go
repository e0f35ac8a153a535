package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GridCell is one location in the rendered grid view, with whether any
// observation of the given session references it.
type GridCell struct {
	Location
	HasObservations bool `json:"has_observations"`
}

// LocationService provides coordinate lookup over the location index.
type LocationService interface {
	// Lookup resolves (aisle, column, row) to its location.
	Lookup(ctx context.Context, companyID, aisleID, col, row int) (*Location, error)

	// AllForAisle returns the aisle's locations ascending by row then column.
	AllForAisle(ctx context.Context, companyID, aisleID int) ([]Location, error)

	// Grid returns the aisle's locations in the same order, each flagged with
	// whether the given stocktaking session has recorded observations there.
	// Pass stocktakingID 0 for a plain grid without scan status.
	Grid(ctx context.Context, companyID, aisleID, stocktakingID int) ([]GridCell, error)
}

type locationService struct {
	pool *pgxpool.Pool
}

func NewLocationService(pool *pgxpool.Pool) LocationService {
	return &locationService{pool: pool}
}

// checkAisle verifies the aisle exists and belongs to the company.
func checkAisle(ctx context.Context, q pgxQuerier, companyID, aisleID int) error {
	var ownerID int
	err := q.QueryRow(ctx, `
		SELECT w.company_id FROM aisles a
		JOIN warehouses w ON w.id = a.warehouse_id
		WHERE a.id = $1
	`, aisleID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundf("aisle %d", aisleID)
		}
		return fmt.Errorf("failed to resolve aisle: %w", err)
	}
	if ownerID != companyID {
		return forbiddenf("aisle %d belongs to another company", aisleID)
	}
	return nil
}

func (s *locationService) Lookup(ctx context.Context, companyID, aisleID, col, row int) (*Location, error) {
	if err := checkAisle(ctx, s.pool, companyID, aisleID); err != nil {
		return nil, err
	}

	var l Location
	err := s.pool.QueryRow(ctx, `
		SELECT id, aisle_id, col, row FROM locations
		WHERE aisle_id = $1 AND col = $2 AND row = $3
	`, aisleID, col, row).Scan(&l.ID, &l.AisleID, &l.Col, &l.Row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("location (%d,%d) in aisle %d", col, row, aisleID)
		}
		return nil, fmt.Errorf("failed to lookup location: %w", err)
	}
	return &l, nil
}

func (s *locationService) AllForAisle(ctx context.Context, companyID, aisleID int) ([]Location, error) {
	if err := checkAisle(ctx, s.pool, companyID, aisleID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, aisle_id, col, row FROM locations
		WHERE aisle_id = $1
		ORDER BY row, col
	`, aisleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.AisleID, &l.Col, &l.Row); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *locationService) Grid(ctx context.Context, companyID, aisleID, stocktakingID int) ([]GridCell, error) {
	if err := checkAisle(ctx, s.pool, companyID, aisleID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.aisle_id, l.col, l.row,
		       EXISTS (
		           SELECT 1 FROM stocktaking_lines sl
		           WHERE sl.location_id = l.id AND sl.stocktaking_id = $2
		       )
		FROM locations l
		WHERE l.aisle_id = $1
		ORDER BY l.row, l.col
	`, aisleID, stocktakingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grid: %w", err)
	}
	defer rows.Close()

	var cells []GridCell
	for rows.Next() {
		var c GridCell
		if err := rows.Scan(&c.ID, &c.AisleID, &c.Col, &c.Row, &c.HasObservations); err != nil {
			return nil, fmt.Errorf("failed to scan grid cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}
