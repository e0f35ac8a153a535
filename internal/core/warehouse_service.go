package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WarehouseService manages the physical sites aisles are created under.
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, companyID int, code, name string) (*Warehouse, error)
	GetWarehouses(ctx context.Context, companyID int) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, companyID, warehouseID int) (*Warehouse, error)
}

type warehouseService struct {
	pool *pgxpool.Pool
}

func NewWarehouseService(pool *pgxpool.Pool) WarehouseService {
	return &warehouseService{pool: pool}
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, companyID int, code, name string) (*Warehouse, error) {
	if code == "" {
		return nil, validationf("warehouse code required")
	}
	if name == "" {
		return nil, validationf("warehouse name required")
	}

	var w Warehouse
	err := s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (company_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, code, name, is_active, created_at
	`, companyID, code, name).Scan(
		&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflictf("warehouse code %s already exists", code)
		}
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return &w, nil
}

func (s *warehouseService) GetWarehouses(ctx context.Context, companyID int) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM warehouses
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *warehouseService) GetWarehouse(ctx context.Context, companyID, warehouseID int) (*Warehouse, error) {
	var w Warehouse
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM warehouses
		WHERE id = $1 AND company_id = $2
	`, warehouseID, companyID).Scan(
		&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("warehouse id=%d", warehouseID)
		}
		return nil, fmt.Errorf("failed to fetch warehouse: %w", err)
	}
	return &w, nil
}
