package web

import (
	"net/http"
	"strconv"

	"stocktake/internal/core"
)

// apiListAisles handles GET /api/warehouses/{warehouseID}/aisles.
func (h *Handler) apiListAisles(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := urlInt(w, r, "warehouseID")
	if !ok {
		return
	}
	result, err := h.svc.ListAisles(r.Context(), h.actor(r), warehouseID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result.Aisles)
}

// apiCreateAisles handles POST /api/warehouses/{warehouseID}/aisles.
// Body: [{ code, group_id?, columns, rows }, ...] — the whole batch lands or
// none of it does.
func (h *Handler) apiCreateAisles(w http.ResponseWriter, r *http.Request) {
	warehouseID, ok := urlInt(w, r, "warehouseID")
	if !ok {
		return
	}

	var inputs []core.AisleInput
	if !decodeJSON(w, r, &inputs) {
		return
	}
	if len(inputs) == 0 {
		writeError(w, r, "at least one aisle is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateAisles(r.Context(), h.actor(r), warehouseID, inputs)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Aisles)
}

// apiUpdateAisle handles PATCH /api/aisles/{id}. Omitted fields keep their
// current value; shrinking a grid dimension prunes the cells beyond it.
func (h *Handler) apiUpdateAisle(w http.ResponseWriter, r *http.Request) {
	aisleID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}

	var update core.AisleUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	aisle, err := h.svc.UpdateAisle(r.Context(), h.actor(r), aisleID, update)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, aisle)
}

// apiDeleteAisle handles DELETE /api/aisles/{id}.
func (h *Handler) apiDeleteAisle(w http.ResponseWriter, r *http.Request) {
	aisleID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAisle(r.Context(), h.actor(r), aisleID); err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiGetGrid handles GET /api/aisles/{id}/grid. With ?stocktaking=ID each
// cell carries whether that session has observations there.
func (h *Handler) apiGetGrid(w http.ResponseWriter, r *http.Request) {
	aisleID, ok := urlInt(w, r, "id")
	if !ok {
		return
	}

	stocktakingID := 0
	if s := r.URL.Query().Get("stocktaking"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, "invalid stocktaking parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		stocktakingID = id
	}

	result, err := h.svc.GetGrid(r.Context(), h.actor(r), aisleID, stocktakingID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
