// Package config defines the top-level configuration for the trading
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ETF_* environment variables.
type Config struct {
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	SDE      SDEConfig      `toml:"sde"`
	Market   MarketConfig   `toml:"market"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// AuthConfig holds token verification parameters.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 session tokens.
	JWTSecret string `toml:"jwt_secret"`
	// TokenTTL bounds how old a session token may be.
	TokenTTL duration `toml:"token_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SDEConfig controls where the static data export bundle is loaded from.
type SDEConfig struct {
	// Source is "dir" for a local directory or "blob" for object storage.
	Source string `toml:"source"`
	// Dir is the local bundle directory when Source is "dir".
	Dir string `toml:"dir"`
	// BlobPrefix is the object key prefix when Source is "blob".
	BlobPrefix string `toml:"blob_prefix"`
}

// MarketConfig holds the scan limits and defaults.
type MarketConfig struct {
	// MinProfit is the default minimum per-unit spread for regional scans.
	MinProfit float64 `toml:"min_profit"`
	// MinScanVolume is the smallest accepted cargo budget in m3.
	MinScanVolume float64 `toml:"min_scan_volume"`
	// MinScanPrice is the smallest accepted currency budget.
	MinScanPrice float64 `toml:"min_scan_price"`
	// MaxPortfolios caps how many portfolios one user may hold.
	MaxPortfolios int64 `toml:"max_portfolios"`
	// MaxComponents caps component lines per portfolio.
	MaxComponents int `toml:"max_components"`
	// ScanRateLimit and ScanRateWindow bound regional scans per user.
	ScanRateLimit  int      `toml:"scan_rate_limit"`
	ScanRateWindow duration `toml:"scan_rate_window"`
	// ArchiveScans uploads completed scans to blob storage when set.
	ArchiveScans bool `toml:"archive_scans"`
	// SweepInterval paces the background sweep in scan and full modes.
	SweepInterval duration `toml:"sweep_interval"`
	// SweepVolume and SweepPrice are the budgets for background sweeps.
	SweepVolume float64 `toml:"sweep_volume"`
	SweepPrice  float64 `toml:"sweep_price"`
}

// duration wraps time.Duration with TOML string decoding ("5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit and RateWindow bound requests per authenticated user.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Auth: AuthConfig{
			TokenTTL: duration{24 * time.Hour},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "etf-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		SDE: SDEConfig{
			Source:     "dir",
			Dir:        "sde",
			BlobPrefix: "sde/",
		},
		Market: MarketConfig{
			MinProfit:      100_000,
			MinScanVolume:  100,
			MinScanPrice:   100_000,
			MaxPortfolios:  100,
			MaxComponents:  25,
			ScanRateLimit:  6,
			ScanRateWindow: duration{time.Minute},
			ArchiveScans:   false,
			SweepInterval:  duration{15 * time.Minute},
			SweepVolume:    60_000,
			SweepPrice:     5_000_000_000,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"scan_completed", "portfolio_created", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"scan":   true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth: jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		errs = append(errs, "auth: token_ttl must be positive")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 is only required when something reads or writes blobs.
	needsBlob := c.SDE.Source == "blob" || c.Market.ArchiveScans
	if needsBlob {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// SDE
	switch c.SDE.Source {
	case "dir":
		if c.SDE.Dir == "" {
			errs = append(errs, "sde: dir must not be empty when source is dir")
		}
	case "blob":
		if c.SDE.BlobPrefix == "" {
			errs = append(errs, "sde: blob_prefix must not be empty when source is blob")
		}
	default:
		errs = append(errs, fmt.Sprintf("sde: unknown source %q (valid: dir, blob)", c.SDE.Source))
	}

	// Market
	if c.Market.MinProfit < 0 {
		errs = append(errs, "market: min_profit must be >= 0")
	}
	if c.Market.MinScanVolume <= 0 {
		errs = append(errs, "market: min_scan_volume must be > 0")
	}
	if c.Market.MinScanPrice <= 0 {
		errs = append(errs, "market: min_scan_price must be > 0")
	}
	if c.Market.MaxPortfolios < 1 {
		errs = append(errs, "market: max_portfolios must be >= 1")
	}
	if c.Market.MaxComponents < 1 {
		errs = append(errs, "market: max_components must be >= 1")
	}
	if c.Market.ScanRateLimit < 1 {
		errs = append(errs, "market: scan_rate_limit must be >= 1")
	}
	mode := strings.ToLower(c.Mode)
	sweeping := mode == "scan" || mode == "full"
	if sweeping {
		if c.Market.SweepInterval.Duration <= 0 {
			errs = append(errs, "market: sweep_interval must be positive")
		}
		if c.Market.SweepVolume <= 0 {
			errs = append(errs, "market: sweep_volume must be > 0")
		}
		if c.Market.SweepPrice <= 0 {
			errs = append(errs, "market: sweep_price must be > 0")
		}
	}

	// Server
	if strings.ToLower(c.Mode) == "server" && !c.Server.Enabled {
		errs = append(errs, "server: must be enabled in server mode")
	}
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 1 {
			errs = append(errs, "server: rate_limit must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
