package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/eveexchange/backend/internal/blob/s3"
	"github.com/eveexchange/backend/internal/cache/redis"
	"github.com/eveexchange/backend/internal/catalog"
	"github.com/eveexchange/backend/internal/config"
	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/notify"
	"github.com/eveexchange/backend/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application
// modes need. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	SettingsStore     domain.SettingsStore
	PortfolioStore    domain.PortfolioStore
	AuditStore        domain.AuditStore
	NotificationStore domain.NotificationStore

	// Caches
	Cache       *redis.Client
	OrderCache  domain.OrderCache
	StatsCache  domain.StatsCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage
	BlobReader domain.BlobReader
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Static data
	Catalog *catalog.Catalog

	// Notifications
	Notifier *notify.Notifier
}

// needsS3 reports whether the configuration requires object storage:
// either the static data bundle lives there or completed scans are
// archived.
func needsS3(cfg *config.Config) bool {
	return cfg.SDE.Source == "blob" || cfg.Market.ArchiveScans
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.SettingsStore = postgres.NewSettingsStore(pool)
	deps.PortfolioStore = postgres.NewPortfolioStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)
	deps.NotificationStore = postgres.NewNotificationStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Cache = redisClient
	deps.OrderCache = redis.NewOrderCache(redisClient)
	deps.StatsCache = redis.NewStatsCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobReader = s3blob.NewReader(s3Client)
		writer := s3blob.NewWriter(s3Client)
		deps.BlobWriter = writer
		if cfg.Market.ArchiveScans {
			deps.Archiver = s3blob.NewArchiver(writer, deps.AuditStore)
		}
	}

	// --- Static data catalog ---
	switch cfg.SDE.Source {
	case "blob":
		deps.Catalog, err = catalog.LoadFromBlob(ctx, deps.BlobReader, cfg.SDE.BlobPrefix, nil)
	default:
		deps.Catalog, err = catalog.Load(cfg.SDE.Dir, nil)
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: catalog: %w", err)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, slog.Default())

	return deps, cleanup, nil
}
