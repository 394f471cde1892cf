package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns a configuration populated entirely with default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		AuthToken:    DefaultAuthToken,
		DatabasePath: "./data/sharescan.db",
		CachePath:    "./cache/previews",
		Host:         "0.0.0.0",
		Port:         8000,
		Scan: ScanConfig{
			BatchSize:         1000,
			MaxTextExtractMB:  100,
			MaxTextStoreKB:    50,
			HashSampleSizeKB:  64,
			EnrichmentWorkers: 4,
		},
	}
}

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	def := Default()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}

	if cfg.AuthToken == "" {
		cfg.AuthToken = def.AuthToken
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = def.DatabasePath
	}
	if cfg.CachePath == "" {
		cfg.CachePath = def.CachePath
	}
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}

	if cfg.Scan.BatchSize == 0 {
		cfg.Scan.BatchSize = def.Scan.BatchSize
	}
	if cfg.Scan.MaxTextExtractMB == 0 {
		cfg.Scan.MaxTextExtractMB = def.Scan.MaxTextExtractMB
	}
	if cfg.Scan.MaxTextStoreKB == 0 {
		cfg.Scan.MaxTextStoreKB = def.Scan.MaxTextStoreKB
	}
	if cfg.Scan.HashSampleSizeKB == 0 {
		cfg.Scan.HashSampleSizeKB = def.Scan.HashSampleSizeKB
	}
	if cfg.Scan.EnrichmentWorkers == 0 {
		cfg.Scan.EnrichmentWorkers = def.Scan.EnrichmentWorkers
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/sharescan (or ~/.config/sharescan).
func DefaultConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "sharescan")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}
