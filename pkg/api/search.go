package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sharescan/sharescan/pkg/catalog"
)

// SearchHandler serves full-text search and typeahead suggestions.
type SearchHandler struct {
	store *catalog.Store
}

// NewSearchHandler creates a search handler backed by the catalog store.
func NewSearchHandler(store *catalog.Store) *SearchHandler {
	return &SearchHandler{store: store}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req catalog.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(w, "query must not be empty")
		return
	}
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}

	items, total, err := h.store.Search(req)
	if err != nil {
		internalError(w, err.Error())
		return
	}

	writeJSONOK(w, map[string]any{
		"items": items,
		"total": total,
		"skip":  req.Skip,
		"limit": req.Limit,
	})
}

// Suggest handles GET /api/search/suggest.
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSONOK(w, map[string]any{"suggestions": []catalog.Suggestion{}})
		return
	}
	limit := intParam(r.URL.Query().Get("limit"), 10)
	if limit > 50 {
		limit = 50
	}

	suggestions, err := h.store.Suggest(q, limit)
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{"suggestions": suggestions})
}
