package app

import (
	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest is the input for creating a warehouse.
type CreateWarehouseRequest struct {
	Code string
	Name string
}

// CreateGroupRequest is the input for creating a classification group.
type CreateGroupRequest struct {
	Name     string
	ParentID *int
}

// UpdateGroupRequest carries the fields of a group PATCH; nil means "leave
// unchanged".
type UpdateGroupRequest struct {
	Name     *string
	ParentID *int
}

// RecordScanRequest is one scan event against an open session. The product
// arrives as its scanned code; ExpiryDate is YYYY-MM-DD or empty.
type RecordScanRequest struct {
	ProductCode string
	LocationID  int
	Batch       string
	ExpiryDate  string
	Quantity    decimal.Decimal
}
