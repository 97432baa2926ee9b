package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SettingsStore persists user settings and API keys.
type SettingsStore interface {
	Get(ctx context.Context, userID int64) (UserSettings, error)
	Upsert(ctx context.Context, s UserSettings) error
	CreateAPIKey(ctx context.Context, key APIKey) error
	GetAPIKey(ctx context.Context, keyID string) (APIKey, error)
	DeleteAPIKey(ctx context.Context, userID int64, keyID string) error
	ListAPIKeys(ctx context.Context, userID int64) ([]APIKey, error)
}

// PortfolioStore persists user portfolios.
type PortfolioStore interface {
	Create(ctx context.Context, p Portfolio) (int64, error)
	Delete(ctx context.Context, userID, portfolioID int64) error
	Get(ctx context.Context, userID, portfolioID int64) (Portfolio, error)
	ListByUser(ctx context.Context, userID int64) ([]Portfolio, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	UserID    int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, userID int64, event string, detail map[string]any) error
	List(ctx context.Context, userID int64, opts ListOpts) ([]AuditEntry, error)
}

// NotificationStore persists the user notification feed.
type NotificationStore interface {
	Create(ctx context.Context, n Notification) error
	SetRead(ctx context.Context, userID int64, id string, read bool) error
	SetAllRead(ctx context.Context, userID int64) error
	ListByUser(ctx context.Context, userID int64, opts ListOpts) ([]Notification, error)
}
