package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ETF_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ETF_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Auth ──
	setStr(&cfg.Auth.JWTSecret, "ETF_AUTH_JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "ETF_AUTH_TOKEN_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ETF_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ETF_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ETF_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ETF_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ETF_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ETF_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ETF_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ETF_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ETF_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ETF_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ETF_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ETF_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ETF_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ETF_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ETF_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ETF_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ETF_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ETF_S3_REGION")
	setStr(&cfg.S3.Bucket, "ETF_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ETF_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ETF_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ETF_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ETF_S3_FORCE_PATH_STYLE")

	// ── SDE ──
	setStr(&cfg.SDE.Source, "ETF_SDE_SOURCE")
	setStr(&cfg.SDE.Dir, "ETF_SDE_DIR")
	setStr(&cfg.SDE.BlobPrefix, "ETF_SDE_BLOB_PREFIX")

	// ── Market ──
	setFloat64(&cfg.Market.MinProfit, "ETF_MARKET_MIN_PROFIT")
	setFloat64(&cfg.Market.MinScanVolume, "ETF_MARKET_MIN_SCAN_VOLUME")
	setFloat64(&cfg.Market.MinScanPrice, "ETF_MARKET_MIN_SCAN_PRICE")
	setInt64(&cfg.Market.MaxPortfolios, "ETF_MARKET_MAX_PORTFOLIOS")
	setInt(&cfg.Market.MaxComponents, "ETF_MARKET_MAX_COMPONENTS")
	setInt(&cfg.Market.ScanRateLimit, "ETF_MARKET_SCAN_RATE_LIMIT")
	setDuration(&cfg.Market.ScanRateWindow, "ETF_MARKET_SCAN_RATE_WINDOW")
	setBool(&cfg.Market.ArchiveScans, "ETF_MARKET_ARCHIVE_SCANS")
	setDuration(&cfg.Market.SweepInterval, "ETF_MARKET_SWEEP_INTERVAL")
	setFloat64(&cfg.Market.SweepVolume, "ETF_MARKET_SWEEP_VOLUME")
	setFloat64(&cfg.Market.SweepPrice, "ETF_MARKET_SWEEP_PRICE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ETF_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ETF_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ETF_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ETF_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ETF_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "ETF_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ETF_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ETF_MODE")
	setStr(&cfg.LogLevel, "ETF_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
