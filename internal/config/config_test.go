package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "server"
log_level = "debug"

[auth]
jwt_secret = "sekrit"
token_ttl = "12h"

[market]
min_profit = 250000.0
scan_rate_window = "30s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "sekrit", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL.Duration)
	assert.Equal(t, 250000.0, cfg.Market.MinProfit)
	assert.Equal(t, 30*time.Second, cfg.Market.ScanRateWindow.Duration)

	// Untouched fields keep their defaults.
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, int64(100), cfg.Market.MaxPortfolios)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[auth]
jwt_secret = "from-file"
`)

	t.Setenv("ETF_AUTH_JWT_SECRET", "from-env")
	t.Setenv("ETF_SERVER_PORT", "9100")
	t.Setenv("ETF_MARKET_SWEEP_INTERVAL", "5m")
	t.Setenv("ETF_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Market.SweepInterval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateAcceptsDefaultsWithSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "sekrit"

	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Auth.JWTSecret = ""
	cfg.Redis.Addr = ""
	cfg.Market.ScanRateLimit = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "scan_rate_limit")
}

func TestValidateRequiresS3ForBlobSource(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "sekrit"
	cfg.SDE.Source = "blob"
	cfg.S3.Endpoint = ""
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: endpoint")
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestValidateRequiresSweepSettingsInScanModes(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "sekrit"
	cfg.Mode = "scan"
	cfg.Market.SweepInterval.Duration = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep_interval")

	// Server mode does not sweep, so the same config passes.
	cfg.Mode = "server"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadSDESource(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "sekrit"
	cfg.SDE.Source = "ftp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sde: unknown source")
}
