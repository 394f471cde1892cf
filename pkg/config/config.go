// Package config loads and validates the sharescan configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SHARESCAN_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAuthToken is the well-known placeholder token. While the configured
// auth token equals this value the HTTP surface runs without authentication
// (dev mode).
const DefaultAuthToken = "change-me-to-a-secure-token"

// Config represents the sharescan configuration.
//
// Static configuration only: SMB sources are managed at runtime through the
// API (or the `sharescan sources` commands) and persisted next to the catalog
// database, not here.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// AuthToken is the bearer token required by the HTTP API.
	// The default value disables authentication entirely.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`

	// DatabasePath is the catalog database file. The sources file and the
	// encryption key file live in the same directory.
	DatabasePath string `mapstructure:"database_path" validate:"required" yaml:"database_path"`

	// CachePath holds previews and the SMB temp-download area.
	CachePath string `mapstructure:"cache_path" validate:"required" yaml:"cache_path"`

	// NASMountPath is a legacy setting kept for config compatibility.
	// Unused in SMB-only mode.
	NASMountPath string `mapstructure:"nas_mount_path" yaml:"nas_mount_path,omitempty"`

	// Host and Port configure the HTTP listener.
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`

	// Optional TLS for the HTTP listener.
	SSLCertPath string `mapstructure:"ssl_cert_path" yaml:"ssl_cert_path,omitempty"`
	SSLKeyPath  string `mapstructure:"ssl_key_path" yaml:"ssl_key_path,omitempty"`

	// Scan tuning knobs.
	Scan ScanConfig `mapstructure:"scan" yaml:"scan"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path
	Output string `mapstructure:"output" yaml:"output"`
}

// ScanConfig contains indexing and enrichment tuning.
type ScanConfig struct {
	// BatchSize is the Phase-1 flush size (rows per INSERT batch).
	BatchSize int `mapstructure:"batch_size" validate:"required,min=1" yaml:"batch_size"`

	// MaxTextExtractMB is the upper bound on file size for text extraction.
	MaxTextExtractMB int `mapstructure:"max_text_extract_mb" validate:"min=0" yaml:"max_text_extract_mb"`

	// MaxTextStoreKB is the upper bound on stored text per file.
	MaxTextStoreKB int `mapstructure:"max_text_store_kb" validate:"min=0" yaml:"max_text_store_kb"`

	// HashSampleSizeKB is the head/tail sample size for the content fingerprint.
	HashSampleSizeKB int `mapstructure:"hash_sample_size_kb" validate:"required,min=1" yaml:"hash_sample_size_kb"`

	// EnrichmentWorkers is the Phase-2 worker pool width.
	EnrichmentWorkers int `mapstructure:"enrichment_workers" validate:"required,min=1" yaml:"enrichment_workers"`
}

// AuthDisabled reports whether the API runs without authentication.
func (c *Config) AuthDisabled() bool {
	return c.AuthToken == "" || c.AuthToken == DefaultAuthToken
}

// TLSEnabled reports whether both certificate and key paths are configured.
func (c *Config) TLSEnabled() bool {
	return c.SSLCertPath != "" && c.SSLKeyPath != ""
}

// DataDir returns the directory holding the catalog database, the sources
// file and the encryption key file.
func (c *Config) DataDir() string {
	return filepath.Dir(c.DatabasePath)
}

// EnsureDirs creates the data and cache directories.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.DataDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(c.CachePath, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := Default()
		ApplyDefaults(cfg)
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with the
// freshly loaded configuration. Invalid intermediate states are skipped.
func Watch(configPath string, onChange func(*Config)) {
	v := viper.New()
	setupViper(v, configPath)
	if _, err := readConfigFile(v); err != nil {
		return
	}
	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return
		}
		ApplyDefaults(&cfg)
		if err := Validate(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
}

// Save writes the configuration to the given path in YAML form.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Owner-only: the file may carry a real auth token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration against struct validation tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if (cfg.SSLCertPath == "") != (cfg.SSLKeyPath == "") {
		return fmt.Errorf("ssl_cert_path and ssl_key_path must be set together")
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SHARESCAN_SCAN_BATCH_SIZE=500
	v.SetEnvPrefix("SHARESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the decode hooks for config parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
