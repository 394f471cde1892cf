package api

import (
	"net/http"

	"github.com/sharescan/sharescan/pkg/catalog"
)

// DashboardHandler serves catalog statistics.
type DashboardHandler struct {
	store *catalog.Store
}

// NewDashboardHandler creates a dashboard handler backed by the catalog store.
func NewDashboardHandler(store *catalog.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, _ *http.Request) {
	data, err := h.store.Dashboard()
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, data)
}

// Treemap handles GET /api/dashboard/treemap.
func (h *DashboardHandler) Treemap(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 100)
	if limit > 500 {
		limit = 500
	}

	entries, err := h.store.Treemap(limit)
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{"entries": entries})
}
