package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ScanInput is one scan event: a product observed at a location.
type ScanInput struct {
	ProductID  int             `json:"product_id"`
	LocationID int             `json:"location_id"`
	Batch      string          `json:"batch,omitempty"`
	ExpiryDate time.Time       `json:"expiry_date,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// StocktakingService drives the session state machine: open sessions
// accumulate scans per location, finalize makes a session read-only.
type StocktakingService interface {
	// CreateSession opens a new stocktaking for a warehouse of the company.
	// A warehouse carries at most one open session at a time; opening a
	// second one fails with ErrConflict until the first is finalized or
	// deleted.
	CreateSession(ctx context.Context, companyID, warehouseID, userID int) (*Stocktaking, error)

	GetSession(ctx context.Context, companyID, sessionID int) (*Stocktaking, error)
	GetSessions(ctx context.Context, companyID int, status *SessionStatus) ([]Stocktaking, error)

	// RecordScan accumulates a scan into the session. A scan with an
	// identical (product, location, batch, expiry) key adds its quantity to
	// the existing observation: a repeat scan means "found another unit",
	// never a correction. Requires the session to be open.
	RecordScan(ctx context.Context, companyID, sessionID int, scan ScanInput) (*Observation, error)

	// ResetLocation deletes every observation of the session at the given
	// location, so an operator can redo that location's count from scratch.
	ResetLocation(ctx context.Context, companyID, sessionID, locationID int) error

	// Finalize sets the notes text and finish timestamp atomically and
	// transitions the session to finished. Terminal: no further RecordScan
	// or ResetLocation is permitted.
	Finalize(ctx context.Context, companyID, sessionID int, notes string) (*Stocktaking, error)

	// DeleteSession removes the session in either state; observations and
	// baselines cascade away with it.
	DeleteSession(ctx context.Context, companyID, sessionID int) error

	// GetObservations lists the session's accumulated scan rows.
	GetObservations(ctx context.Context, companyID, sessionID int) ([]Observation, error)

	// ImportBaseline stores expected-stock rows for the session. Re-importing
	// a (product, batch, expiry) key replaces its expected quantity rather
	// than accumulating. Requires the session to be open.
	ImportBaseline(ctx context.Context, companyID, sessionID int, rows []Baseline) error
}

type stocktakingService struct {
	pool *pgxpool.Pool
}

func NewStocktakingService(pool *pgxpool.Pool) StocktakingService {
	return &stocktakingService{pool: pool}
}

func (s *stocktakingService) CreateSession(ctx context.Context, companyID, warehouseID, userID int) (*Stocktaking, error) {
	if err := checkWarehouse(ctx, s.pool, companyID, warehouseID); err != nil {
		return nil, err
	}

	var st Stocktaking
	err := s.pool.QueryRow(ctx, `
		INSERT INTO stocktakings (company_id, warehouse_id, user_id, reference, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, company_id, warehouse_id, user_id, reference, status, notes, started_at, finished_at
	`, companyID, warehouseID, userID, uuid.NewString(), SessionOpen).Scan(
		&st.ID, &st.CompanyID, &st.WarehouseID, &st.UserID, &st.Reference,
		&st.Status, &st.Notes, &st.StartedAt, &st.FinishedAt,
	)
	if err != nil {
		// The partial unique index on (warehouse_id) WHERE status = 'open'
		// serializes concurrent opens without a read-then-insert race.
		if isUniqueViolation(err) {
			return nil, conflictf("warehouse %d already has an open stocktaking", warehouseID)
		}
		return nil, fmt.Errorf("failed to create stocktaking: %w", err)
	}
	return &st, nil
}

// lockSession fetches the session with the given row lock and enforces
// company ownership. lockClause is "FOR SHARE" for scan-path operations
// (they may run concurrently against one session) and "FOR UPDATE" for
// finalize/delete (which must wait out in-flight scans).
func lockSession(ctx context.Context, tx pgx.Tx, companyID, sessionID int, lockClause string) (*Stocktaking, error) {
	var st Stocktaking
	err := tx.QueryRow(ctx, `
		SELECT id, company_id, warehouse_id, user_id, reference, status, notes, started_at, finished_at
		FROM stocktakings WHERE id = $1 `+lockClause,
		sessionID,
	).Scan(
		&st.ID, &st.CompanyID, &st.WarehouseID, &st.UserID, &st.Reference,
		&st.Status, &st.Notes, &st.StartedAt, &st.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("stocktaking %d", sessionID)
		}
		return nil, fmt.Errorf("failed to resolve stocktaking: %w", err)
	}
	if st.CompanyID != companyID {
		return nil, forbiddenf("stocktaking %d belongs to another company", sessionID)
	}
	return &st, nil
}

// checkLocationTenant verifies the location's aisle's warehouse belongs to
// the given company (the cross-entity tenant check of the scan path).
func checkLocationTenant(ctx context.Context, q pgxQuerier, companyID, locationID int) error {
	var ownerID int
	err := q.QueryRow(ctx, `
		SELECT w.company_id
		FROM locations l
		JOIN aisles a     ON a.id = l.aisle_id
		JOIN warehouses w ON w.id = a.warehouse_id
		WHERE l.id = $1
	`, locationID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundf("location %d", locationID)
		}
		return fmt.Errorf("failed to resolve location: %w", err)
	}
	if ownerID != companyID {
		return forbiddenf("location %d belongs to another company", locationID)
	}
	return nil
}

func (s *stocktakingService) RecordScan(ctx context.Context, companyID, sessionID int, scan ScanInput) (*Observation, error) {
	if scan.Quantity.LessThan(decimal.NewFromInt(1)) {
		return nil, validationf("scan quantity must be at least 1, got %s", scan.Quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := lockSession(ctx, tx, companyID, sessionID, "FOR SHARE")
	if err != nil {
		return nil, err
	}
	if st.Status != SessionOpen {
		return nil, invalidStatef("stocktaking %d is finished", sessionID)
	}

	if err := checkLocationTenant(ctx, tx, companyID, scan.LocationID); err != nil {
		return nil, err
	}

	var productOwner int
	err = tx.QueryRow(ctx, "SELECT company_id FROM products WHERE id = $1", scan.ProductID).Scan(&productOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("product %d", scan.ProductID)
		}
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if productOwner != companyID {
		return nil, forbiddenf("product %d belongs to another company", scan.ProductID)
	}

	expiry := scan.ExpiryDate
	if expiry.IsZero() {
		expiry = zeroExpiry
	}

	// Single atomic upsert-with-increment: two concurrent scans of the same
	// key both land, the quantity ends up as their sum, no read-modify-write
	// in application code.
	var obs Observation
	err = tx.QueryRow(ctx, `
		INSERT INTO stocktaking_lines (stocktaking_id, product_id, location_id, batch, expiry_date, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stocktaking_id, product_id, location_id, batch, expiry_date)
		DO UPDATE SET quantity = stocktaking_lines.quantity + EXCLUDED.quantity
		RETURNING id, stocktaking_id, product_id, location_id, batch, expiry_date, quantity
	`, sessionID, scan.ProductID, scan.LocationID, scan.Batch, expiry, scan.Quantity).Scan(
		&obs.ID, &obs.StocktakingID, &obs.ProductID, &obs.LocationID,
		&obs.Batch, &obs.ExpiryDate, &obs.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit scan: %w", err)
	}
	return &obs, nil
}

func (s *stocktakingService) ResetLocation(ctx context.Context, companyID, sessionID, locationID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := lockSession(ctx, tx, companyID, sessionID, "FOR SHARE")
	if err != nil {
		return err
	}
	if st.Status != SessionOpen {
		return invalidStatef("stocktaking %d is finished", sessionID)
	}
	if err := checkLocationTenant(ctx, tx, companyID, locationID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM stocktaking_lines WHERE stocktaking_id = $1 AND location_id = $2",
		sessionID, locationID,
	); err != nil {
		return fmt.Errorf("failed to reset location: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *stocktakingService) Finalize(ctx context.Context, companyID, sessionID int, notes string) (*Stocktaking, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := lockSession(ctx, tx, companyID, sessionID, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if st.Status != SessionOpen {
		return nil, invalidStatef("stocktaking %d is already finished", sessionID)
	}

	// Notes and finish timestamp land in one statement: a finished session
	// without its timestamp can never be observed.
	err = tx.QueryRow(ctx, `
		UPDATE stocktakings
		SET status = $1, notes = $2, finished_at = NOW()
		WHERE id = $3
		RETURNING status, notes, finished_at
	`, SessionFinished, notes, sessionID).Scan(&st.Status, &st.Notes, &st.FinishedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize stocktaking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}
	return st, nil
}

func (s *stocktakingService) DeleteSession(ctx context.Context, companyID, sessionID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Permitted in either state. Lines and baselines cascade via FK.
	if _, err := lockSession(ctx, tx, companyID, sessionID, "FOR UPDATE"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM stocktakings WHERE id = $1", sessionID); err != nil {
		return fmt.Errorf("failed to delete stocktaking: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *stocktakingService) GetSession(ctx context.Context, companyID, sessionID int) (*Stocktaking, error) {
	var st Stocktaking
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, warehouse_id, user_id, reference, status, notes, started_at, finished_at
		FROM stocktakings WHERE id = $1
	`, sessionID).Scan(
		&st.ID, &st.CompanyID, &st.WarehouseID, &st.UserID, &st.Reference,
		&st.Status, &st.Notes, &st.StartedAt, &st.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("stocktaking %d", sessionID)
		}
		return nil, fmt.Errorf("failed to resolve stocktaking: %w", err)
	}
	if st.CompanyID != companyID {
		return nil, forbiddenf("stocktaking %d belongs to another company", sessionID)
	}
	return &st, nil
}

func (s *stocktakingService) GetSessions(ctx context.Context, companyID int, status *SessionStatus) ([]Stocktaking, error) {
	q := `
		SELECT id, company_id, warehouse_id, user_id, reference, status, notes, started_at, finished_at
		FROM stocktakings WHERE company_id = $1`
	args := []any{companyID}
	if status != nil {
		args = append(args, *status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY started_at DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocktakings: %w", err)
	}
	defer rows.Close()

	var sessions []Stocktaking
	for rows.Next() {
		var st Stocktaking
		if err := rows.Scan(
			&st.ID, &st.CompanyID, &st.WarehouseID, &st.UserID, &st.Reference,
			&st.Status, &st.Notes, &st.StartedAt, &st.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stocktaking: %w", err)
		}
		sessions = append(sessions, st)
	}
	return sessions, rows.Err()
}

func (s *stocktakingService) GetObservations(ctx context.Context, companyID, sessionID int) ([]Observation, error) {
	if _, err := s.GetSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sl.id, sl.stocktaking_id, sl.product_id, sl.location_id,
		       sl.batch, sl.expiry_date, sl.quantity
		FROM stocktaking_lines sl
		JOIN locations l ON l.id = sl.location_id
		WHERE sl.stocktaking_id = $1
		ORDER BY l.aisle_id, l.row, l.col, sl.id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(
			&o.ID, &o.StocktakingID, &o.ProductID, &o.LocationID,
			&o.Batch, &o.ExpiryDate, &o.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

func (s *stocktakingService) ImportBaseline(ctx context.Context, companyID, sessionID int, rows []Baseline) error {
	// An empty import still goes through the session checks: importing into
	// a foreign or finished session must fail regardless of row count.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := lockSession(ctx, tx, companyID, sessionID, "FOR SHARE")
	if err != nil {
		return err
	}
	if st.Status != SessionOpen {
		return invalidStatef("stocktaking %d is finished", sessionID)
	}

	for _, row := range rows {
		var productOwner int
		err := tx.QueryRow(ctx, "SELECT company_id FROM products WHERE id = $1", row.ProductID).Scan(&productOwner)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFoundf("product %d", row.ProductID)
			}
			return fmt.Errorf("failed to resolve product: %w", err)
		}
		if productOwner != companyID {
			return forbiddenf("product %d belongs to another company", row.ProductID)
		}

		expiry := row.ExpiryDate
		if expiry.IsZero() {
			expiry = zeroExpiry
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_baselines (stocktaking_id, product_id, batch, expiry_date, expected_qty)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (stocktaking_id, product_id, batch, expiry_date)
			DO UPDATE SET expected_qty = EXCLUDED.expected_qty
		`, sessionID, row.ProductID, row.Batch, expiry, row.ExpectedQty); err != nil {
			return fmt.Errorf("failed to import baseline row: %w", err)
		}
	}

	return tx.Commit(ctx)
}
