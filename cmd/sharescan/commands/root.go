// Package commands implements the sharescan CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sharescan",
	Short: "ShareScan - SMB share indexer and search engine",
	Long: `ShareScan indexes the contents of SMB/CIFS shares into a local
searchable catalog: full-text search over file names and extracted text,
duplicate detection by content fingerprint, automatic categorization and
media metadata extraction. No OS-level mounts are required.

Use "sharescan [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/sharescan/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(statsCmd)
}

// loadConfig loads the configuration honoring the global --config flag and
// initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	err = logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
