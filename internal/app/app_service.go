package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"stocktake/internal/core"
	"stocktake/internal/export"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type appService struct {
	users      core.UserService
	warehouses core.WarehouseService
	groups     core.GroupService
	products   core.ProductService
	aisles     core.AisleService
	locations  core.LocationService
	sessions   core.StocktakingService
	reconcile  core.ReconciliationService
	codec      export.Codec
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	users core.UserService,
	warehouses core.WarehouseService,
	groups core.GroupService,
	products core.ProductService,
	aisles core.AisleService,
	locations core.LocationService,
	sessions core.StocktakingService,
	reconcile core.ReconciliationService,
	codec export.Codec,
) ApplicationService {
	return &appService{
		users:      users,
		warehouses: warehouses,
		groups:     groups,
		products:   products,
		aisles:     aisles,
		locations:  locations,
		sessions:   sessions,
		reconcile:  reconcile,
		codec:      codec,
	}
}

// authorize checks the actor's capability against their own company. The
// cross-tenant checks on foreign IDs live in the core services.
func (s *appService) authorize(actor core.Actor, cap core.Capability) error {
	return core.Authorize(actor, actor.CompanyID, cap)
}

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("authentication failed: invalid credentials")
	}
	return &UserSession{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *appService) ListWarehouses(ctx context.Context, actor core.Actor) (*WarehouseListResult, error) {
	if err := s.authorize(actor, core.CapReadWarehouses); err != nil {
		return nil, err
	}
	warehouses, err := s.warehouses.GetWarehouses(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) GetWarehouse(ctx context.Context, actor core.Actor, warehouseID int) (*core.Warehouse, error) {
	if err := s.authorize(actor, core.CapReadWarehouses); err != nil {
		return nil, err
	}
	return s.warehouses.GetWarehouse(ctx, actor.CompanyID, warehouseID)
}

func (s *appService) CreateWarehouse(ctx context.Context, actor core.Actor, req CreateWarehouseRequest) (*core.Warehouse, error) {
	if err := s.authorize(actor, core.CapWriteWarehouses); err != nil {
		return nil, err
	}
	return s.warehouses.CreateWarehouse(ctx, actor.CompanyID, req.Code, req.Name)
}

func (s *appService) ListGroups(ctx context.Context, actor core.Actor) (*GroupListResult, error) {
	if err := s.authorize(actor, core.CapReadGroups); err != nil {
		return nil, err
	}
	groups, err := s.groups.GetGroups(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	return &GroupListResult{Groups: groups}, nil
}

func (s *appService) CreateGroup(ctx context.Context, actor core.Actor, req CreateGroupRequest) (*core.Group, error) {
	if err := s.authorize(actor, core.CapWriteGroups); err != nil {
		return nil, err
	}
	return s.groups.CreateGroup(ctx, actor.CompanyID, req.Name, req.ParentID)
}

func (s *appService) UpdateGroup(ctx context.Context, actor core.Actor, groupID int, req UpdateGroupRequest) (*core.Group, error) {
	if err := s.authorize(actor, core.CapWriteGroups); err != nil {
		return nil, err
	}
	return s.groups.UpdateGroup(ctx, actor.CompanyID, groupID, req.Name, req.ParentID)
}

func (s *appService) DeleteGroup(ctx context.Context, actor core.Actor, groupID int) error {
	if err := s.authorize(actor, core.CapWriteGroups); err != nil {
		return err
	}
	return s.groups.DeleteGroup(ctx, actor.CompanyID, groupID)
}

func (s *appService) ListProducts(ctx context.Context, actor core.Actor) (*ProductListResult, error) {
	if err := s.authorize(actor, core.CapReadProducts); err != nil {
		return nil, err
	}
	products, err := s.products.GetProducts(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) CreateProduct(ctx context.Context, actor core.Actor, input core.ProductInput) (*core.Product, error) {
	if err := s.authorize(actor, core.CapWriteProducts); err != nil {
		return nil, err
	}
	return s.products.CreateProduct(ctx, actor.CompanyID, input)
}

func (s *appService) ImportProducts(ctx context.Context, actor core.Actor, r io.Reader, loc export.Locale) (*ImportResult, error) {
	if err := s.authorize(actor, core.CapWriteProducts); err != nil {
		return nil, err
	}

	rows, failures, err := s.codec.ReadProducts(r, loc)
	if err != nil {
		return nil, fmt.Errorf("product import rejected: %v: %w", err, core.ErrValidation)
	}

	groups, err := s.groups.GetGroups(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	groupIDs := make(map[string]int, len(groups))
	for _, g := range groups {
		groupIDs[g.Name] = g.ID
	}

	result := &ImportResult{ReportID: uuid.NewString(), Failures: failures}
	for _, row := range rows {
		input := core.ProductInput{
			Code:         row.Code,
			Description:  row.Description,
			Unit:         row.Unit,
			Origin:       row.Origin,
			Currency:     row.Currency,
			Price:        row.Price,
			BatchTracked: row.BatchTracked,
			IsEnabled:    row.Enabled,
		}
		if row.GroupName != "" {
			id, ok := groupIDs[row.GroupName]
			if !ok {
				result.Failures = append(result.Failures, export.RowError{
					Row: row.Row, Message: fmt.Sprintf("unknown group %q", row.GroupName),
				})
				continue
			}
			input.GroupID = &id
		}
		if _, err := s.products.CreateProduct(ctx, actor.CompanyID, input); err != nil {
			result.Failures = append(result.Failures, export.RowError{Row: row.Row, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}

func (s *appService) ResolveScan(ctx context.Context, actor core.Actor, code string) (*core.Product, error) {
	if err := s.authorize(actor, core.CapReadProducts); err != nil {
		return nil, err
	}
	return s.products.ResolveScan(ctx, actor.CompanyID, code)
}

func (s *appService) ListAisles(ctx context.Context, actor core.Actor, warehouseID int) (*AisleListResult, error) {
	if err := s.authorize(actor, core.CapReadWarehouses); err != nil {
		return nil, err
	}
	aisles, err := s.aisles.GetAisles(ctx, actor.CompanyID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &AisleListResult{Aisles: aisles}, nil
}

func (s *appService) CreateAisles(ctx context.Context, actor core.Actor, warehouseID int, inputs []core.AisleInput) (*AisleListResult, error) {
	if err := s.authorize(actor, core.CapWriteWarehouses); err != nil {
		return nil, err
	}
	if _, err := s.aisles.CreateAisles(ctx, actor.CompanyID, warehouseID, inputs); err != nil {
		return nil, err
	}
	aisles, err := s.aisles.GetAisles(ctx, actor.CompanyID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &AisleListResult{Aisles: aisles}, nil
}

func (s *appService) UpdateAisle(ctx context.Context, actor core.Actor, aisleID int, update core.AisleUpdate) (*core.Aisle, error) {
	if err := s.authorize(actor, core.CapWriteWarehouses); err != nil {
		return nil, err
	}
	return s.aisles.UpdateAisle(ctx, actor.CompanyID, aisleID, update)
}

func (s *appService) DeleteAisle(ctx context.Context, actor core.Actor, aisleID int) error {
	if err := s.authorize(actor, core.CapWriteWarehouses); err != nil {
		return err
	}
	return s.aisles.DeleteAisle(ctx, actor.CompanyID, aisleID)
}

func (s *appService) GetGrid(ctx context.Context, actor core.Actor, aisleID, stocktakingID int) (*GridResult, error) {
	if err := s.authorize(actor, core.CapReadWarehouses); err != nil {
		return nil, err
	}
	cells, err := s.locations.Grid(ctx, actor.CompanyID, aisleID, stocktakingID)
	if err != nil {
		return nil, err
	}
	return &GridResult{AisleID: aisleID, Cells: cells}, nil
}

func (s *appService) CreateStocktaking(ctx context.Context, actor core.Actor, warehouseID int) (*core.Stocktaking, error) {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return nil, err
	}
	return s.sessions.CreateSession(ctx, actor.CompanyID, warehouseID, actor.UserID)
}

func (s *appService) ListStocktakings(ctx context.Context, actor core.Actor, status *core.SessionStatus) (*StocktakingListResult, error) {
	if err := s.authorize(actor, core.CapReadStocktakings); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.GetSessions(ctx, actor.CompanyID, status)
	if err != nil {
		return nil, err
	}
	return &StocktakingListResult{Stocktakings: sessions}, nil
}

func (s *appService) GetStocktaking(ctx context.Context, actor core.Actor, sessionID int) (*core.Stocktaking, error) {
	if err := s.authorize(actor, core.CapReadStocktakings); err != nil {
		return nil, err
	}
	return s.sessions.GetSession(ctx, actor.CompanyID, sessionID)
}

func (s *appService) RecordScan(ctx context.Context, actor core.Actor, sessionID int, req RecordScanRequest) (*core.Observation, error) {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return nil, err
	}

	product, err := s.products.ResolveScan(ctx, actor.CompanyID, req.ProductCode)
	if err != nil {
		return nil, err
	}

	scan := core.ScanInput{
		ProductID:  product.ID,
		LocationID: req.LocationID,
		Batch:      req.Batch,
		Quantity:   req.Quantity,
	}
	if req.ExpiryDate != "" {
		expiry, err := time.Parse(export.ExpiryLayout, req.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry date %q: %w", req.ExpiryDate, core.ErrValidation)
		}
		scan.ExpiryDate = expiry
	}
	return s.sessions.RecordScan(ctx, actor.CompanyID, sessionID, scan)
}

func (s *appService) ResetLocation(ctx context.Context, actor core.Actor, sessionID, locationID int) error {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return err
	}
	return s.sessions.ResetLocation(ctx, actor.CompanyID, sessionID, locationID)
}

func (s *appService) FinalizeStocktaking(ctx context.Context, actor core.Actor, sessionID int, notes string) (*core.Stocktaking, error) {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return nil, err
	}
	return s.sessions.Finalize(ctx, actor.CompanyID, sessionID, notes)
}

func (s *appService) DeleteStocktaking(ctx context.Context, actor core.Actor, sessionID int) error {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, actor.CompanyID, sessionID)
}

func (s *appService) GetSessionReport(ctx context.Context, actor core.Actor, sessionID int) (*core.SessionReport, error) {
	if err := s.authorize(actor, core.CapReadStocktakings); err != nil {
		return nil, err
	}
	return s.reconcile.SessionReport(ctx, actor.CompanyID, sessionID)
}

func (s *appService) WriteSessionExport(ctx context.Context, actor core.Actor, sessionID int, loc export.Locale, w io.Writer) (*core.Stocktaking, error) {
	if err := s.authorize(actor, core.CapReadStocktakings); err != nil {
		return nil, err
	}
	report, err := s.reconcile.SessionReport(ctx, actor.CompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.codec.WriteSessionReport(w, report, loc); err != nil {
		return nil, err
	}
	return &report.Stocktaking, nil
}

func (s *appService) ImportBaseline(ctx context.Context, actor core.Actor, sessionID int, r io.Reader, loc export.Locale) (*ImportResult, error) {
	if err := s.authorize(actor, core.CapEditStocktakings); err != nil {
		return nil, err
	}

	rows, failures, err := s.codec.ReadBaselines(r, loc)
	if err != nil {
		return nil, fmt.Errorf("baseline import rejected: %v: %w", err, core.ErrValidation)
	}

	result := &ImportResult{ReportID: uuid.NewString(), Failures: failures}
	var baselines []core.Baseline
	for _, row := range rows {
		product, err := s.products.ResolveScan(ctx, actor.CompanyID, row.ProductCode)
		if err != nil {
			result.Failures = append(result.Failures, export.RowError{Row: row.Row, Message: err.Error()})
			continue
		}
		baselines = append(baselines, core.Baseline{
			StocktakingID: sessionID,
			ProductID:     product.ID,
			Batch:         row.Batch,
			ExpiryDate:    row.ExpiryDate,
			ExpectedQty:   row.Quantity,
		})
	}
	if err := s.sessions.ImportBaseline(ctx, actor.CompanyID, sessionID, baselines); err != nil {
		return nil, err
	}
	result.Imported = len(baselines)
	return result, nil
}

func (s *appService) GetVariance(ctx context.Context, actor core.Actor, sessionID int) (*VarianceResult, error) {
	if err := s.authorize(actor, core.CapReadStocktakings); err != nil {
		return nil, err
	}
	session, err := s.sessions.GetSession(ctx, actor.CompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	lines, err := s.reconcile.Variance(ctx, actor.CompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	return &VarianceResult{Stocktaking: session, Lines: lines}, nil
}
