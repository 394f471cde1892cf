package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sharescan/sharescan/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample ShareScan configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/sharescan/config.yaml. Use --config to specify a custom
path.

Examples:
  # Initialize with default location
  sharescan init

  # Initialize with custom path
  sharescan init --config /etc/sharescan/config.yaml

  # Force overwrite existing config
  sharescan init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Save(config.Default(), path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Add an SMB source: sharescan sources add")
	fmt.Println("  3. Start the server: sharescan start")
	fmt.Println("\nSecurity note:")
	fmt.Println("  The API runs without authentication until auth_token is changed")
	fmt.Println("  from its placeholder value. Set a real token before exposing the")
	fmt.Println("  server beyond localhost:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Println("    openssl rand -hex 32")

	return nil
}
