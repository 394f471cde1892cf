package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/scanner"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
)

// Deps carries everything the HTTP handlers need.
type Deps struct {
	Config  *config.Config
	Store   *catalog.Store
	Client  *smb.Client
	Scanner *scanner.Service
	Manager *sources.Manager
}

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus metrics
//   - GET /api/files - Directory listing
//   - GET /api/files/tree - Folder tree
//   - GET /api/files/{id} - Single file with tags and metadata
//   - POST /api/files/{id}/tags - Attach a user tag
//   - DELETE /api/files/{id}/tags/{tag} - Detach a tag
//   - POST /api/search - Full-text search
//   - GET /api/search/suggest - Typeahead suggestions
//   - GET /api/dashboard - Catalog statistics
//   - GET /api/dashboard/treemap - Size treemap
//   - GET /api/scan/status - Scan progress
//   - POST /api/scan/start - Start a scan (?full=true for full re-index)
//   - POST /api/scan/stop - Request cancellation
//   - GET /api/scan/history - Past scans
//   - GET /api/sources - Configured sources (credentials redacted)
//   - POST /api/sources - Add a source
//   - DELETE /api/sources - Remove a source (?id=host/share)
//   - GET /api/sources/status - Per-source reachability
//   - POST /api/sources/discover - Enumerate a host's shares
//   - POST /api/sources/test - Probe a source
//   - GET /api/stream/{id} - Stream file content (Range supported)
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONOK(w, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})
	r.Handle("/metrics", promhttp.Handler())

	filesHandler := NewFilesHandler(deps.Store)
	searchHandler := NewSearchHandler(deps.Store)
	dashboardHandler := NewDashboardHandler(deps.Store)
	scanHandler := NewScanHandler(deps.Scanner, deps.Store)
	sourcesHandler := NewSourcesHandler(deps.Manager, deps.Client)
	streamHandler := NewStreamHandler(deps.Store, deps.Client, deps.Manager)

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(deps.Config.AuthToken, deps.Config.AuthDisabled()))

		// Streaming is exempt from the request timeout: a movie served
		// over SMB legitimately outlives 30 seconds.
		r.Get("/stream/{id}", streamHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Route("/files", func(r chi.Router) {
				r.Get("/", filesHandler.List)
				r.Get("/tree", filesHandler.Tree)
				r.Get("/{id}", filesHandler.Get)
				r.Post("/{id}/tags", filesHandler.AddTag)
				r.Delete("/{id}/tags/{tag}", filesHandler.RemoveTag)
			})

			r.Route("/search", func(r chi.Router) {
				r.Post("/", searchHandler.Search)
				r.Get("/suggest", searchHandler.Suggest)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", dashboardHandler.Get)
				r.Get("/treemap", dashboardHandler.Treemap)
			})

			r.Route("/scan", func(r chi.Router) {
				r.Get("/status", scanHandler.Status)
				r.Post("/start", scanHandler.Start)
				r.Post("/stop", scanHandler.Stop)
				r.Get("/history", scanHandler.History)
			})

			r.Route("/sources", func(r chi.Router) {
				r.Get("/", sourcesHandler.List)
				r.Post("/", sourcesHandler.Add)
				r.Delete("/", sourcesHandler.Remove)
				r.Get("/status", sourcesHandler.Status)
				r.Post("/discover", sourcesHandler.Discover)
				r.Post("/test", sourcesHandler.Test)
			})
		})
	})

	return r
}
