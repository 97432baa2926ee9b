package domain

import "time"

// UserSettings is the per-user account row backing authentication and
// request policy (premium gating, home region).
type UserSettings struct {
	UserID     int64
	UserName   string
	Premium    bool
	HomeRegion int64
	CreatedAt  time.Time
}

// APIKey is a stored third-party access key. Only the argon2id digest of
// the secret is persisted; KeyID is the public half used for lookup.
type APIKey struct {
	KeyID      string
	UserID     int64
	Label      string
	SecretHash string
	CreatedAt  time.Time
}

// Notification is one entry in a user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"-"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"time"`
}
