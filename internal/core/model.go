package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type User struct {
	ID           int       `json:"id"`
	CompanyID    int       `json:"company_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Warehouse is a physical site within a company. Aisles hang off it.
type Warehouse struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Aisle is a warehouse subdivision holding a rectangular grid of locations.
// The code is two alphanumeric characters, unique per warehouse.
type Aisle struct {
	ID          int       `json:"id"`
	WarehouseID int       `json:"warehouse_id"`
	Code        string    `json:"code"`
	GroupID     *int      `json:"group_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is one storage cell at (Col, Row) within an aisle.
// Its lifetime is bound to the aisle's current grid bounds.
type Location struct {
	ID      int `json:"id"`
	AisleID int `json:"aisle_id"`
	Col     int `json:"col"`
	Row     int `json:"row"`
}

// Group is a hierarchical classification tag assignable to aisles and products.
type Group struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"company_id"`
	ParentID  *int   `json:"parent_id,omitempty"`
	Name      string `json:"name"`
}

type Product struct {
	ID            int              `json:"id"`
	CompanyID     int              `json:"company_id"`
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
	CreatedAt     time.Time        `json:"created_at"`
}

// SessionStatus is the explicit state of a stocktaking session. The finish
// timestamp is an attribute of the finished state, not the discriminant.
type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionFinished SessionStatus = "finished"
)

// Stocktaking is one physical inventory-count event for a warehouse.
type Stocktaking struct {
	ID          int           `json:"id"`
	CompanyID   int           `json:"company_id"`
	WarehouseID int           `json:"warehouse_id"`
	UserID      int           `json:"user_id"`
	Reference   string        `json:"reference"`
	Status      SessionStatus `json:"status"`
	Notes       string        `json:"notes"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// zeroExpiry stands in for "no expiry date" inside uniqueness keys, so that
// scans without an expiry accumulate instead of multiplying rows.
var zeroExpiry = time.Time{}

// Observation is an accumulated scan row: one product counted at one
// location within a session, keyed by (product, location, batch, expiry).
type Observation struct {
	ID            int             `json:"id"`
	StocktakingID int             `json:"stocktaking_id"`
	ProductID     int             `json:"product_id"`
	LocationID    int             `json:"location_id"`
	Batch         string          `json:"batch,omitempty"`
	ExpiryDate    time.Time       `json:"expiry_date,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Baseline is an imported expected-stock row for a session. The key excludes
// location: baseline stock is not location-specific.
type Baseline struct {
	ID            int             `json:"id"`
	StocktakingID int             `json:"stocktaking_id"`
	ProductID     int             `json:"product_id"`
	Batch         string          `json:"batch,omitempty"`
	ExpiryDate    time.Time       `json:"expiry_date,omitempty"`
	ExpectedQty   decimal.Decimal `json:"expected_qty"`
}
