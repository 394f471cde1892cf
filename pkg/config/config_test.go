package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.Scan.BatchSize)
	assert.Equal(t, 4, cfg.Scan.EnrichmentWorkers)
}

func TestAuthDisabled(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.AuthDisabled())

	cfg.AuthToken = "a-real-token"
	assert.False(t, cfg.AuthDisabled())

	cfg.AuthToken = ""
	assert.True(t, cfg.AuthDisabled())
}

func TestTLSEnabled(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.TLSEnabled())

	cfg.SSLCertPath = "/tmp/cert.pem"
	assert.False(t, cfg.TLSEnabled())

	cfg.SSLKeyPath = "/tmp/key.pem"
	assert.True(t, cfg.TLSEnabled())
}

func TestValidateRejectsHalfConfiguredTLS(t *testing.T) {
	cfg := Default()
	cfg.SSLCertPath = "/tmp/cert.pem"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "VERBOSE"
	assert.Error(t, Validate(cfg))
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, Default().DatabasePath, cfg.DatabasePath)
	assert.Equal(t, 64, cfg.Scan.HashSampleSizeKB)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{Port: 9999, Scan: ScanConfig{BatchSize: 10}}
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 10, cfg.Scan.BatchSize)
}

func TestApplyDefaultsUppercasesLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Port = 9001
	cfg.DatabasePath = filepath.Join(dir, "data", "catalog.db")
	cfg.Scan.EnrichmentWorkers = 8
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	// The file may carry a real auth token.
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, loaded.Port)
	assert.Equal(t, cfg.DatabasePath, loaded.DatabasePath)
	assert.Equal(t, 8, loaded.Scan.EnrichmentWorkers)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SHARESCAN_PORT", "9002")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, Save(Default(), path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.Port)
}

func TestDataDir(t *testing.T) {
	cfg := Default()
	cfg.DatabasePath = "/var/lib/sharescan/catalog.db"
	assert.Equal(t, "/var/lib/sharescan", cfg.DataDir())
}
