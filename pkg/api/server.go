package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sharescan/sharescan/internal/logger"
)

// Server wraps the HTTP listener with TLS support and graceful shutdown.
//
// The server is created stopped; Start blocks until the context is
// cancelled or the listener fails.
type Server struct {
	server       *http.Server
	deps         Deps
	shutdownOnce sync.Once
}

// NewServer creates the API HTTP server from its dependencies.
func NewServer(deps Deps) *Server {
	router := NewRouter(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: streaming responses are open-ended.
	}

	return &Server{server: server, deps: deps}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers graceful shutdown, which also
// stops any running scan and waits for it to wind down.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		scheme := "http"
		if s.deps.Config.TLSEnabled() {
			scheme = "https"
		}
		logger.Info("API server listening", "addr", s.server.Addr, "scheme", scheme)
		if s.deps.Config.AuthDisabled() {
			logger.Warn("API authentication is disabled; set a real auth_token for production use")
		}

		var err error
		if s.deps.Config.TLSEnabled() {
			err = s.server.ListenAndServeTLS(s.deps.Config.SSLCertPath, s.deps.Config.SSLKeyPath)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if s.deps.Scanner.Stop() {
			logger.Info("waiting for the running scan to stop")
			s.deps.Scanner.Wait()
		}

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}
