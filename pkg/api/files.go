package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sharescan/sharescan/pkg/catalog"
)

// FilesHandler serves catalog browsing: directory listings, single files,
// the folder tree and user tags.
type FilesHandler struct {
	store *catalog.Store
}

// NewFilesHandler creates a files handler backed by the catalog store.
func NewFilesHandler(store *catalog.Store) *FilesHandler {
	return &FilesHandler{store: store}
}

// List handles GET /api/files.
//
// Query parameters: parent_path, sort_by, order, skip, limit, mime_type, tag.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := catalog.ListOptions{
		ParentPath: q.Get("parent_path"),
		SortBy:     q.Get("sort_by"),
		Order:      q.Get("order"),
		Skip:       intParam(q.Get("skip"), 0),
		Limit:      intParam(q.Get("limit"), 50),
		MimePrefix: q.Get("mime_type"),
		Tag:        q.Get("tag"),
	}

	items, total, err := h.store.ListFiles(opts)
	if err != nil {
		internalError(w, err.Error())
		return
	}

	writeJSONOK(w, map[string]any{
		"items": items,
		"total": total,
		"skip":  opts.Skip,
		"limit": opts.Limit,
	})
}

// Get handles GET /api/files/{id}.
func (h *FilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid file id")
		return
	}

	item, err := h.store.GetByID(id)
	if errors.Is(err, catalog.ErrFileNotFound) {
		notFound(w, "file not found")
		return
	}
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, item)
}

// Tree handles GET /api/files/tree.
func (h *FilesHandler) Tree(w http.ResponseWriter, r *http.Request) {
	depth := intParam(r.URL.Query().Get("depth"), 2)
	if depth < 1 {
		depth = 1
	}
	if depth > 6 {
		depth = 6
	}

	nodes, err := h.store.Tree(depth)
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{"tree": nodes})
}

type tagRequest struct {
	Tag string `json:"tag"`
}

// AddTag handles POST /api/files/{id}/tags.
func (h *FilesHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid file id")
		return
	}

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
		badRequest(w, "request body must carry a non-empty tag")
		return
	}

	if _, err := h.store.GetByID(id); err != nil {
		if errors.Is(err, catalog.ErrFileNotFound) {
			notFound(w, "file not found")
			return
		}
		internalError(w, err.Error())
		return
	}

	if err := h.store.AddUserTag(id, req.Tag); err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"file_id": id, "tag": req.Tag})
}

// RemoveTag handles DELETE /api/files/{id}/tags/{tag}.
func (h *FilesHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid file id")
		return
	}
	tag := chi.URLParam(r, "tag")

	if err := h.store.RemoveTag(id, tag); err != nil {
		internalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intParam parses a query integer with a fallback default.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
