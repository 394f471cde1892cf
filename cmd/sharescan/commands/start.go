package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/api"
	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/extract"
	"github.com/sharescan/sharescan/pkg/scanner"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
	"github.com/sharescan/sharescan/pkg/vault"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ShareScan server",
	Long: `Start the ShareScan HTTP server.

The server connects to every configured SMB source, serves the browsing,
search and dashboard API, and runs scans on demand.

Examples:
  # Start with the default config location
  sharescan start

  # Start with a custom config file
  sharescan start --config /etc/sharescan/config.yaml

  # Override settings through the environment
  SHARESCAN_LOGGING_LEVEL=DEBUG sharescan start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	logger.Info("starting sharescan",
		"version", Version,
		"database", cfg.DatabasePath,
		"listen", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	)

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	client := smb.NewClient()
	defer func() { _ = client.Close() }()

	temps, err := smb.NewTempStore(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}
	defer temps.RemoveAll()

	manager := sources.NewManager(cfg.DataDir(), vault.New(cfg.DataDir()), client, store)
	svc := scanner.New(store, client, temps, extract.NewProber(), manager, cfg.Scan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect configured sources up front so the first scan starts fast.
	// Unreachable hosts are retried when a scan needs them.
	manager.RegisterAll(ctx)

	// Pick up log-level changes without a restart.
	config.Watch(cfgFile, func(next *config.Config) {
		logger.SetLevel(next.Logging.Level)
		logger.Info("configuration reloaded", "log_level", next.Logging.Level)
	})

	server := api.NewServer(api.Deps{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Scanner: svc,
		Manager: manager,
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("Server stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("Server stopped")
	}

	return nil
}
