package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductInput describes a catalog entry to create or import.
type ProductInput struct {
	Code          string           `json:"code"`
	Description   string           `json:"description"`
	Unit          string           `json:"unit"`
	Origin        string           `json:"origin"`
	Currency      string           `json:"currency"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	BatchTracked  bool             `json:"batch_tracked"`
	ExpiryTracked bool             `json:"expiry_tracked"`
	IsEnabled     bool             `json:"is_enabled"`
	GroupID       *int             `json:"group_id,omitempty"`
}

// ProductService manages the tenant product catalog and resolves scanned codes.
type ProductService interface {
	CreateProduct(ctx context.Context, companyID int, input ProductInput) (*Product, error)
	GetProducts(ctx context.Context, companyID int) ([]Product, error)

	// ResolveScan translates a scanned code into a product strictly within
	// the company's catalog. A code existing only in another company's
	// catalog is indistinguishable from ErrNotFound.
	ResolveScan(ctx context.Context, companyID int, code string) (*Product, error)
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

func (s *productService) CreateProduct(ctx context.Context, companyID int, input ProductInput) (*Product, error) {
	if input.Code == "" {
		return nil, validationf("product code required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, validationf("product price cannot be negative, got %s", input.Price)
	}
	if input.Unit == "" {
		input.Unit = "unit"
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, code, description, unit, origin, currency,
		                      price, batch_tracked, expiry_tracked, is_enabled, group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, company_id, code, description, unit, origin, currency,
		          price, batch_tracked, expiry_tracked, is_enabled, group_id, created_at
	`, companyID, input.Code, input.Description, input.Unit, input.Origin, input.Currency,
		input.Price, input.BatchTracked, input.ExpiryTracked, input.IsEnabled, input.GroupID,
	).Scan(
		&p.ID, &p.CompanyID, &p.Code, &p.Description, &p.Unit, &p.Origin, &p.Currency,
		&p.Price, &p.BatchTracked, &p.ExpiryTracked, &p.IsEnabled, &p.GroupID, &p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflictf("product code %s already exists", input.Code)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *productService) GetProducts(ctx context.Context, companyID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, description, unit, origin, currency,
		       price, batch_tracked, expiry_tracked, is_enabled, group_id, created_at
		FROM products
		WHERE company_id = $1
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Code, &p.Description, &p.Unit, &p.Origin, &p.Currency,
			&p.Price, &p.BatchTracked, &p.ExpiryTracked, &p.IsEnabled, &p.GroupID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *productService) ResolveScan(ctx context.Context, companyID int, code string) (*Product, error) {
	if code == "" {
		return nil, validationf("scan code required")
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, description, unit, origin, currency,
		       price, batch_tracked, expiry_tracked, is_enabled, group_id, created_at
		FROM products
		WHERE company_id = $1 AND code = $2 AND is_enabled = true
	`, companyID, code).Scan(
		&p.ID, &p.CompanyID, &p.Code, &p.Description, &p.Unit, &p.Origin, &p.Currency,
		&p.Price, &p.BatchTracked, &p.ExpiryTracked, &p.IsEnabled, &p.GroupID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("product code %s", code)
		}
		return nil, fmt.Errorf("failed to resolve scan: %w", err)
	}
	return &p, nil
}
