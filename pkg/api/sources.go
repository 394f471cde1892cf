package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
)

// SourcesHandler manages the configured SMB sources over HTTP.
type SourcesHandler struct {
	manager *sources.Manager
	client  *smb.Client
}

// NewSourcesHandler creates a sources handler.
func NewSourcesHandler(manager *sources.Manager, client *smb.Client) *SourcesHandler {
	return &SourcesHandler{manager: manager, client: client}
}

// sourceView is the credential-free representation returned by List.
type sourceView struct {
	SourceID  string `json:"source_id"`
	Host      string `json:"host"`
	Share     string `json:"share"`
	Username  string `json:"username"`
	Subfolder string `json:"subfolder"`
	Label     string `json:"label"`
}

// List handles GET /api/sources. Passwords never leave the server.
func (h *SourcesHandler) List(w http.ResponseWriter, _ *http.Request) {
	srcs, err := h.manager.Sources()
	if err != nil {
		internalError(w, err.Error())
		return
	}

	views := make([]sourceView, 0, len(srcs))
	for _, src := range srcs {
		views = append(views, sourceView{
			SourceID:  src.ID(),
			Host:      src.Host,
			Share:     src.Share,
			Username:  src.Username,
			Subfolder: src.Subfolder,
			Label:     src.DisplayLabel(),
		})
	}
	writeJSONOK(w, map[string]any{"sources": views})
}

// Add handles POST /api/sources. The source is persisted even when the
// initial connection attempt fails, so the response distinguishes the
// two outcomes.
func (h *SourcesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var src smb.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if src.Host == "" || src.Share == "" {
		badRequest(w, "host and share are required")
		return
	}

	id, err := h.manager.Add(r.Context(), src)
	if errors.Is(err, sources.ErrDuplicateSource) {
		conflict(w, "source already exists: "+src.ID())
		return
	}
	if err != nil {
		// Saved but unreachable right now.
		writeJSON(w, http.StatusCreated, map[string]any{
			"source_id": id,
			"connected": false,
			"message":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"source_id": id,
		"connected": true,
	})
}

// Remove handles DELETE /api/sources. The identifier contains slashes,
// so it travels as the "id" query parameter rather than a path segment.
func (h *SourcesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		badRequest(w, "id query parameter is required")
		return
	}

	purged, err := h.manager.Remove(id)
	if errors.Is(err, sources.ErrSourceNotFound) {
		notFound(w, "source not found: "+id)
		return
	}
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{"source_id": id, "purged_files": purged})
}

// Status handles GET /api/sources/status.
func (h *SourcesHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.Status(r.Context())
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, report)
}

type discoverRequest struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Discover handles POST /api/sources/discover: enumerate the shares a
// host exposes before the user commits to one.
func (h *SourcesHandler) Discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Host == "" {
		badRequest(w, "host is required")
		return
	}

	shares, err := h.client.DiscoverShares(r.Context(), req.Host, req.Username, req.Password)
	if err != nil {
		writeJSONOK(w, map[string]any{
			"host":    req.Host,
			"shares":  []string{},
			"success": false,
			"message": err.Error(),
		})
		return
	}
	writeJSONOK(w, map[string]any{
		"host":    req.Host,
		"shares":  shares,
		"success": true,
	})
}

// Test handles POST /api/sources/test: probe a candidate source without
// persisting it. An existing source can be probed by its id instead.
func (h *SourcesHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string `json:"source_id"`
		smb.Source
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	src := req.Source
	if req.SourceID != "" {
		resolved, err := h.manager.Resolve(req.SourceID)
		if errors.Is(err, sources.ErrSourceNotFound) {
			notFound(w, "source not found: "+req.SourceID)
			return
		}
		if err != nil {
			internalError(w, err.Error())
			return
		}
		src = resolved
	}
	if src.Host == "" || src.Share == "" {
		badRequest(w, "host and share are required")
		return
	}

	writeJSONOK(w, h.client.TestConnection(r.Context(), src))
}
