package web

import (
	"fmt"
	"net/http"

	"stocktake/internal/app"
	"stocktake/internal/core"
	"stocktake/internal/export"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiListWarehouses handles GET /api/warehouses.
func (h *Handler) apiListWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarehouses(r.Context(), h.actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result.Warehouses)
}

// apiGetWarehouse handles GET /api/warehouses/{warehouseID}.
func (h *Handler) apiGetWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := urlInt(w, r, "warehouseID")
	if !ok {
		return
	}
	warehouse, err := h.svc.GetWarehouse(r.Context(), h.actor(r), warehouseID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, warehouse)
}

// apiCreateWarehouse handles POST /api/warehouses.
// Body: { code, name }
func (h *Handler) apiCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	warehouse, err := h.svc.CreateWarehouse(r.Context(), h.actor(r), app.CreateWarehouseRequest{
		Code: body.Code,
		Name: body.Name,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, warehouse)
}

// apiListGroups handles GET /api/groups.
func (h *Handler) apiListGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListGroups(r.Context(), h.actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result.Groups)
}

// apiCreateGroup handles POST /api/groups.
// Body: { name, parent_id? }
func (h *Handler) apiCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		ParentID *int   `json:"parent_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), h.actor(r), app.CreateGroupRequest{
		Name:     body.Name,
		ParentID: body.ParentID,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, group)
}

// apiUpdateGroup handles PATCH /api/groups/{id}.
func (h *Handler) apiUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		Name     *string `json:"name"`
		ParentID *int    `json:"parent_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	group, err := h.svc.UpdateGroup(r.Context(), h.actor(r), groupID, app.UpdateGroupRequest{
		Name:     body.Name,
		ParentID: body.ParentID,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, group)
}

// apiDeleteGroup handles DELETE /api/groups/{id}.
func (h *Handler) apiDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), h.actor(r), groupID); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context(), h.actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

// apiCreateProduct handles POST /api/products.
// Body: { code, description?, unit?, origin?, currency?, price?, batch_tracked?, expiry_tracked?, is_enabled?, group_id? }
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code          string `json:"code"`
		Description   string `json:"description"`
		Unit          string `json:"unit"`
		Origin        string `json:"origin"`
		Currency      string `json:"currency"`
		Price         string `json:"price"`
		BatchTracked  bool   `json:"batch_tracked"`
		ExpiryTracked bool   `json:"expiry_tracked"`
		IsEnabled     *bool  `json:"is_enabled"`
		GroupID       *int   `json:"group_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	input := core.ProductInput{
		Code:          body.Code,
		Description:   body.Description,
		Unit:          body.Unit,
		Origin:        body.Origin,
		Currency:      body.Currency,
		BatchTracked:  body.BatchTracked,
		ExpiryTracked: body.ExpiryTracked,
		IsEnabled:     true,
		GroupID:       body.GroupID,
	}
	if body.IsEnabled != nil {
		input.IsEnabled = *body.IsEnabled
	}
	if body.Price != "" {
		price, err := decimal.NewFromString(body.Price)
		if err != nil {
			writeError(w, r, fmt.Sprintf("invalid price %q", body.Price), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		input.Price = &price
	}

	product, err := h.svc.CreateProduct(r.Context(), h.actor(r), input)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, product)
}

// apiImportProducts handles POST /api/products/import. The body is the raw
// tabular file; ?locale=it selects Italian headers.
func (h *Handler) apiImportProducts(w http.ResponseWriter, r *http.Request) {
	loc := export.ParseLocale(r.URL.Query().Get("locale"))
	result, err := h.svc.ImportProducts(r.Context(), h.actor(r), r.Body, loc)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiResolveScan handles GET /api/products/scan/{code}.
func (h *Handler) apiResolveScan(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	product, err := h.svc.ResolveScan(r.Context(), h.actor(r), code)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, product)
}
