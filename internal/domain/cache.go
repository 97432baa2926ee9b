package domain

import (
	"context"
	"io"
	"time"
)

// OrderCache reads live order snapshots from the cache populated by the
// ingest pipeline. Implementations filter out zero-price and zero-volume
// rows; the engine assumes all inputs are positive-priced.
type OrderCache interface {
	// TypeOrders returns every cached order for one item type in a region.
	TypeOrders(ctx context.Context, typeID, regionID int64) ([]Order, error)
	// SideOrders returns a region's orders of one side grouped by type,
	// restricted to the given type set (all cached types when nil).
	SideOrders(ctx context.Context, regionID int64, buy bool, typeIDs []int64) (OrderBook, error)
	// SetTypeOrders replaces the cached order list for one type/region.
	// Used by the ingest collaborator and tests.
	SetTypeOrders(ctx context.Context, typeID, regionID int64, orders []Order) error
}

// StatsCache reads per-type daily aggregates for the forecast scan.
type StatsCache interface {
	DailyStats(ctx context.Context, typeID, regionID int64) (ItemStats, bool, error)
	// DailyStatsBatch pipelines lookups for many types at once; absent
	// types are simply missing from the result.
	DailyStatsBatch(ctx context.Context, typeIDs []int64, regionID int64) ([]ItemStats, error)
}

// RateLimiter limits request rates per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub messaging between services and the
// WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader retrieves objects from blob storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// BlobWriter stores objects in blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, contentType string, body io.Reader) error
}
