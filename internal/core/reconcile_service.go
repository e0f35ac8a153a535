package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReconciliationService assembles export and variance reports for a session.
type ReconciliationService interface {
	// SessionReport returns one row per observation with its location path
	// rendered, plus the flat monetary total of the session.
	SessionReport(ctx context.Context, companyID, sessionID int) (*SessionReport, error)

	// Variance reconciles the session's observations against its imported
	// baseline rows.
	Variance(ctx context.Context, companyID, sessionID int) ([]VarianceLine, error)
}

type reconciliationService struct {
	pool     *pgxpool.Pool
	sessions StocktakingService
}

func NewReconciliationService(pool *pgxpool.Pool, sessions StocktakingService) ReconciliationService {
	return &reconciliationService{pool: pool, sessions: sessions}
}

func (s *reconciliationService) SessionReport(ctx context.Context, companyID, sessionID int) (*SessionReport, error) {
	session, err := s.sessions.GetSession(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.code, p.description, p.unit, p.currency, p.price,
		       sl.batch, sl.expiry_date, sl.quantity,
		       a.code, l.col, l.row
		FROM stocktaking_lines sl
		JOIN products p  ON p.id = sl.product_id
		JOIN locations l ON l.id = sl.location_id
		JOIN aisles a    ON a.id = l.aisle_id
		WHERE sl.stocktaking_id = $1
		ORDER BY a.code, l.row, l.col, p.code
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session report: %w", err)
	}
	defer rows.Close()

	report := &SessionReport{Stocktaking: *session}
	for rows.Next() {
		var line ReportLine
		var aisleCode string
		var col, row int
		if err := rows.Scan(
			&line.ProductCode, &line.Description, &line.Unit, &line.Currency, &line.Price,
			&line.Batch, &line.ExpiryDate, &line.Quantity,
			&aisleCode, &col, &row,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report line: %w", err)
		}
		line.LocationPath = LocationPath(aisleCode, col, row)
		line.LineTotal = ComputeLineTotal(line.Price, line.Quantity)
		report.Lines = append(report.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report row iteration error: %w", err)
	}

	report.Total = SumLineTotals(report.Lines)
	return report, nil
}

func (s *reconciliationService) Variance(ctx context.Context, companyID, sessionID int) ([]VarianceLine, error) {
	observations, err := s.sessions.GetObservations(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, stocktaking_id, product_id, batch, expiry_date, expected_qty
		FROM stock_baselines
		WHERE stocktaking_id = $1
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query baselines: %w", err)
	}
	defer rows.Close()

	var baselines []Baseline
	for rows.Next() {
		var b Baseline
		if err := rows.Scan(&b.ID, &b.StocktakingID, &b.ProductID, &b.Batch, &b.ExpiryDate, &b.ExpectedQty); err != nil {
			return nil, fmt.Errorf("failed to scan baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("baseline row iteration error: %w", err)
	}

	codes, err := s.productCodes(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return ComputeVariance(observations, baselines, codes), nil
}

func (s *reconciliationService) productCodes(ctx context.Context, companyID int) (map[int]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, code FROM products WHERE company_id = $1", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[int]string)
	for rows.Next() {
		var id int
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("failed to scan product code: %w", err)
		}
		codes[id] = code
	}
	return codes, rows.Err()
}
