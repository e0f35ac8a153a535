package core

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		actor     Actor
		companyID int
		cap       Capability
		expectErr bool
	}{
		{"admin same company", Actor{UserID: 1, CompanyID: 1, Role: "admin"}, 1, CapManageUsers, false},
		{"manager writes warehouses", Actor{CompanyID: 1, Role: "manager"}, 1, CapWriteWarehouses, false},
		{"manager cannot manage users", Actor{CompanyID: 1, Role: "manager"}, 1, CapManageUsers, true},
		{"operator edits stocktakings", Actor{CompanyID: 1, Role: "operator"}, 1, CapEditStocktakings, false},
		{"operator cannot write products", Actor{CompanyID: 1, Role: "operator"}, 1, CapWriteProducts, true},
		{"cross-company is forbidden for any role", Actor{CompanyID: 1, Role: "admin"}, 2, CapReadWarehouses, true},
		{"unknown role has no capabilities", Actor{CompanyID: 1, Role: "guest"}, 1, CapReadWarehouses, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.companyID, tt.cap)
			if tt.expectErr {
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("expected ErrForbidden, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
