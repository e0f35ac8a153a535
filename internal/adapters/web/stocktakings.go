package web

import (
	"fmt"
	"log"
	"net/http"

	"stocktake/internal/app"
	"stocktake/internal/core"
	"stocktake/internal/export"

	"github.com/shopspring/decimal"
)

// apiListStocktakings handles GET /api/stocktakings. ?status=open|finished
// filters by session state.
func (h *Handler) apiListStocktakings(w http.ResponseWriter, r *http.Request) {
	var statusPtr *core.SessionStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status := core.SessionStatus(s)
		if status != core.SessionOpen && status != core.SessionFinished {
			writeError(w, r, fmt.Sprintf("unknown status %q", s), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		statusPtr = &status
	}

	result, err := h.svc.ListStocktakings(r.Context(), h.actor(r), statusPtr)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result.Stocktakings)
}

// apiCreateStocktaking handles POST /api/stocktakings.
// Body: { warehouse_id }
func (h *Handler) apiCreateStocktaking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WarehouseID int `json:"warehouse_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.WarehouseID == 0 {
		writeError(w, r, "warehouse_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	session, err := h.svc.CreateStocktaking(r.Context(), h.actor(r), body.WarehouseID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, session)
}

// apiGetStocktaking handles GET /api/stocktakings/{id}.
func (h *Handler) apiGetStocktaking(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	session, err := h.svc.GetStocktaking(r.Context(), h.actor(r), sessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, session)
}

// apiRecordScan handles POST /api/stocktakings/{id}/scans.
// Body: { product_code, location_id, batch?, expiry_date?, quantity }
func (h *Handler) apiRecordScan(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		ProductCode string `json:"product_code"`
		LocationID  int    `json:"location_id"`
		Batch       string `json:"batch"`
		ExpiryDate  string `json:"expiry_date"`
		Quantity    string `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ProductCode == "" {
		writeError(w, r, "product_code is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if body.LocationID == 0 {
		writeError(w, r, "location_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	// Absent quantity means one unit found, the common scan-gun case.
	qty := decimal.NewFromInt(1)
	if body.Quantity != "" {
		parsed, err := decimal.NewFromString(body.Quantity)
		if err != nil {
			writeError(w, r, fmt.Sprintf("invalid quantity %q", body.Quantity), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		qty = parsed
	}

	obs, err := h.svc.RecordScan(r.Context(), h.actor(r), sessionID, app.RecordScanRequest{
		ProductCode: body.ProductCode,
		LocationID:  body.LocationID,
		Batch:       body.Batch,
		ExpiryDate:  body.ExpiryDate,
		Quantity:    qty,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, obs)
}

// apiResetLocation handles DELETE /api/stocktakings/{id}/locations/{locationID}.
func (h *Handler) apiResetLocation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	locationID, ok := urlInt(w, r, "locationID")
	if !ok {
		return
	}
	if err := h.svc.ResetLocation(r.Context(), h.actor(r), sessionID, locationID); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiFinalizeStocktaking handles POST /api/stocktakings/{id}/finalize.
// Body: { notes? }
func (h *Handler) apiFinalizeStocktaking(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	session, err := h.svc.FinalizeStocktaking(r.Context(), h.actor(r), sessionID, body.Notes)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, session)
}

// apiDeleteStocktaking handles DELETE /api/stocktakings/{id}.
func (h *Handler) apiDeleteStocktaking(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteStocktaking(r.Context(), h.actor(r), sessionID); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiSessionReport handles GET /api/stocktakings/{id}/report.
func (h *Handler) apiSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	report, err := h.svc.GetSessionReport(r.Context(), h.actor(r), sessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// apiExportStocktaking handles GET /api/stocktakings/{id}/export. Streams
// the observation report as CSV; ?locale=it selects Italian headers.
func (h *Handler) apiExportStocktaking(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	loc := export.ParseLocale(r.URL.Query().Get("locale"))

	session, err := h.svc.GetStocktaking(r.Context(), h.actor(r), sessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="stocktaking-`+session.Reference+`.csv"`)
	if _, err := h.svc.WriteSessionExport(r.Context(), h.actor(r), sessionID, loc, w); err != nil {
		// Headers are already out; the truncated file is all we can signal.
		log.Printf("export of stocktaking %d failed: %v", sessionID, err)
	}
}

// apiImportBaseline handles POST /api/stocktakings/{id}/baseline. The body
// is the raw tabular file; ?locale=it selects Italian headers.
func (h *Handler) apiImportBaseline(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	loc := export.ParseLocale(r.URL.Query().Get("locale"))

	result, err := h.svc.ImportBaseline(r.Context(), h.actor(r), sessionID, r.Body, loc)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiVariance handles GET /api/stocktakings/{id}/variance.
func (h *Handler) apiVariance(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetVariance(r.Context(), h.actor(r), sessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
