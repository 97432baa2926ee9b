package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eveexchange/backend/internal/domain"
)

// SettingsStore implements domain.SettingsStore using PostgreSQL.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a new SettingsStore backed by the given pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// Get returns the settings row for a user, or domain.ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, userID int64) (domain.UserSettings, error) {
	const query = `
		SELECT user_id, user_name, premium, home_region, created_at
		FROM settings WHERE user_id = $1`

	var us domain.UserSettings
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&us.UserID, &us.UserName, &us.Premium, &us.HomeRegion, &us.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserSettings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("postgres: get settings %d: %w", userID, err)
	}
	return us, nil
}

// Upsert inserts or updates a user's settings row.
func (s *SettingsStore) Upsert(ctx context.Context, us domain.UserSettings) error {
	const query = `
		INSERT INTO settings (user_id, user_name, premium, home_region)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			premium = EXCLUDED.premium,
			home_region = EXCLUDED.home_region`

	if _, err := s.pool.Exec(ctx, query, us.UserID, us.UserName, us.Premium, us.HomeRegion); err != nil {
		return fmt.Errorf("postgres: upsert settings %d: %w", us.UserID, err)
	}
	return nil
}

// CreateAPIKey stores a new API key. Only the secret's digest is
// persisted.
func (s *SettingsStore) CreateAPIKey(ctx context.Context, key domain.APIKey) error {
	const query = `
		INSERT INTO api_keys (key_id, user_id, label, secret_hash)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.pool.Exec(ctx, query, key.KeyID, key.UserID, key.Label, key.SecretHash); err != nil {
		return fmt.Errorf("postgres: create api key %s: %w", key.KeyID, err)
	}
	return nil
}

// GetAPIKey looks up an API key by its public id.
func (s *SettingsStore) GetAPIKey(ctx context.Context, keyID string) (domain.APIKey, error) {
	const query = `
		SELECT key_id, user_id, label, secret_hash, created_at
		FROM api_keys WHERE key_id = $1`

	var key domain.APIKey
	err := s.pool.QueryRow(ctx, query, keyID).Scan(
		&key.KeyID, &key.UserID, &key.Label, &key.SecretHash, &key.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.APIKey{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("postgres: get api key: %w", err)
	}
	return key, nil
}

// DeleteAPIKey removes a key. The user id is part of the match so a user
// cannot delete another user's key.
func (s *SettingsStore) DeleteAPIKey(ctx context.Context, userID int64, keyID string) error {
	const query = `DELETE FROM api_keys WHERE user_id = $1 AND key_id = $2`

	tag, err := s.pool.Exec(ctx, query, userID, keyID)
	if err != nil {
		return fmt.Errorf("postgres: delete api key %s: %w", keyID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListAPIKeys returns a user's keys, newest first.
func (s *SettingsStore) ListAPIKeys(ctx context.Context, userID int64) ([]domain.APIKey, error) {
	const query = `
		SELECT key_id, user_id, label, secret_hash, created_at
		FROM api_keys WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list api keys %d: %w", userID, err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(&key.KeyID, &key.UserID, &key.Label, &key.SecretHash, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list api keys rows: %w", err)
	}
	return keys, nil
}

// Compile-time interface check.
var _ domain.SettingsStore = (*SettingsStore)(nil)
