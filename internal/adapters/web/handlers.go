package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"stocktake/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// Health (public)
	r.Get("/api/health", h.health)

	// Auth (public)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// Protected API routes (401 JSON if unauthenticated)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Imports carry whole files; everything else gets a tight body cap.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(16 << 20)) // 16 MB
			r.Post("/api/products/import", h.apiImportProducts)
			r.Post("/api/stocktakings/{id}/baseline", h.apiImportBaseline)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			r.Get("/api/warehouses", h.apiListWarehouses)
			r.Post("/api/warehouses", h.apiCreateWarehouse)
			r.Get("/api/warehouses/{warehouseID}", h.apiGetWarehouse)
			r.Get("/api/warehouses/{warehouseID}/aisles", h.apiListAisles)
			r.Post("/api/warehouses/{warehouseID}/aisles", h.apiCreateAisles)

			r.Patch("/api/aisles/{id}", h.apiUpdateAisle)
			r.Delete("/api/aisles/{id}", h.apiDeleteAisle)
			r.Get("/api/aisles/{id}/grid", h.apiGetGrid)

			r.Get("/api/groups", h.apiListGroups)
			r.Post("/api/groups", h.apiCreateGroup)
			r.Patch("/api/groups/{id}", h.apiUpdateGroup)
			r.Delete("/api/groups/{id}", h.apiDeleteGroup)

			r.Get("/api/products", h.apiListProducts)
			r.Post("/api/products", h.apiCreateProduct)
			r.Get("/api/products/scan/{code}", h.apiResolveScan)

			r.Get("/api/stocktakings", h.apiListStocktakings)
			r.Post("/api/stocktakings", h.apiCreateStocktaking)
			r.Get("/api/stocktakings/{id}", h.apiGetStocktaking)
			r.Delete("/api/stocktakings/{id}", h.apiDeleteStocktaking)
			r.Post("/api/stocktakings/{id}/scans", h.apiRecordScan)
			r.Delete("/api/stocktakings/{id}/locations/{locationID}", h.apiResetLocation)
			r.Post("/api/stocktakings/{id}/finalize", h.apiFinalizeStocktaking)
			r.Get("/api/stocktakings/{id}/report", h.apiSessionReport)
			r.Get("/api/stocktakings/{id}/export", h.apiExportStocktaking)
			r.Get("/api/stocktakings/{id}/variance", h.apiVariance)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// urlInt extracts a numeric URL parameter, writing a 400 on failure.
func urlInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil {
		writeError(w, r, "invalid "+key+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
