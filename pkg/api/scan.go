package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/scanner"
)

// ScanHandler controls the scan lifecycle and exposes scan history.
type ScanHandler struct {
	svc   *scanner.Service
	store *catalog.Store
}

// NewScanHandler creates a scan handler.
func NewScanHandler(svc *scanner.Service, store *catalog.Store) *ScanHandler {
	return &ScanHandler{svc: svc, store: store}
}

// Status handles GET /api/scan/status.
func (h *ScanHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSONOK(w, h.svc.Status())
}

// Start handles POST /api/scan/start. A "full" query flag forces a
// full re-index instead of an incremental one.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

	state, err := h.svc.Start(full)
	switch {
	case errors.Is(err, scanner.ErrScanBusy):
		conflict(w, "a scan is already running")
		return
	case errors.Is(err, scanner.ErrNoSources):
		badRequest(w, "no sources configured; add a source first")
		return
	case err != nil:
		internalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, state)
}

// Stop handles POST /api/scan/stop. Stopping is asynchronous: the
// response only acknowledges the cancellation request.
func (h *ScanHandler) Stop(w http.ResponseWriter, _ *http.Request) {
	stopping := h.svc.Stop()
	writeJSONOK(w, map[string]any{"stopping": stopping})
}

// History handles GET /api/scan/history.
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 20)
	if limit > 200 {
		limit = 200
	}

	logs, err := h.store.ScanHistory(limit)
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{"scans": logs})
}
