package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
)

// StreamHandler serves file content straight from the SMB share. The
// underlying reader is seekable, so Range requests work and media players
// can seek inside videos without downloading them whole.
type StreamHandler struct {
	store   *catalog.Store
	client  *smb.Client
	manager *sources.Manager
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(store *catalog.Store, client *smb.Client, manager *sources.Manager) *StreamHandler {
	return &StreamHandler{store: store, client: client, manager: manager}
}

// Stream handles GET /api/stream/{id}.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
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
	if item.IsDirectory {
		badRequest(w, "cannot stream a directory")
		return
	}

	srcs, err := h.manager.Sources()
	if err != nil {
		internalError(w, err.Error())
		return
	}
	src, rel, ok := smb.ResolveLogical(item.Path, srcs)
	if !ok {
		notFound(w, "no configured source serves this path")
		return
	}

	rd, err := h.client.Open(r.Context(), src, rel)
	if err != nil {
		if errors.Is(err, smb.ErrNotFound) {
			notFound(w, "file no longer exists on the share")
			return
		}
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
		return
	}
	defer func() { _ = rd.Close() }()

	if item.MimeType != nil {
		w.Header().Set("Content-Type", *item.MimeType)
	}

	modTime := time.Time{}
	if item.ModifiedAt != nil {
		modTime = *item.ModifiedAt
	}
	http.ServeContent(w, r, item.Name, modTime, rd)
}
