package core

// Capability names follow the "{action} {resource-category}" form checked
// before every core operation.
type Capability string

const (
	CapReadWarehouses   Capability = "read warehouses"
	CapWriteWarehouses  Capability = "write warehouses"
	CapReadProducts     Capability = "read products"
	CapWriteProducts    Capability = "write products"
	CapReadGroups       Capability = "read groups"
	CapWriteGroups      Capability = "write groups"
	CapReadStocktakings Capability = "read stocktakings"
	CapEditStocktakings Capability = "edit stocktakings"
	CapManageUsers      Capability = "manage users"
)

// Actor is the authenticated identity every authorization check runs against.
type Actor struct {
	UserID    int
	CompanyID int
	Role      string
}

// roleCapabilities maps each role to its capability set. Operators can run
// counts but not reshape master data; managers administer everything except
// users.
var roleCapabilities = map[string]map[Capability]bool{
	"admin": {
		CapReadWarehouses: true, CapWriteWarehouses: true,
		CapReadProducts: true, CapWriteProducts: true,
		CapReadGroups: true, CapWriteGroups: true,
		CapReadStocktakings: true, CapEditStocktakings: true,
		CapManageUsers: true,
	},
	"manager": {
		CapReadWarehouses: true, CapWriteWarehouses: true,
		CapReadProducts: true, CapWriteProducts: true,
		CapReadGroups: true, CapWriteGroups: true,
		CapReadStocktakings: true, CapEditStocktakings: true,
	},
	"operator": {
		CapReadWarehouses:   true,
		CapReadProducts:     true,
		CapReadGroups:       true,
		CapReadStocktakings: true,
		CapEditStocktakings: true,
	},
}

// Authorize is the single gate in front of core operations: the actor's role
// must grant the capability, and the target entity's company must equal the
// actor's. Both failures surface as ErrForbidden.
func Authorize(actor Actor, targetCompanyID int, cap Capability) error {
	if actor.CompanyID != targetCompanyID {
		return forbiddenf("company %d is not accessible", targetCompanyID)
	}
	if !roleCapabilities[actor.Role][cap] {
		return forbiddenf("role %s lacks capability %q", actor.Role, cap)
	}
	return nil
}
