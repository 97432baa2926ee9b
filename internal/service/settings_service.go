package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eveexchange/backend/internal/auth"
	"github.com/eveexchange/backend/internal/domain"
)

// SettingsService handles user settings and API key management.
type SettingsService struct {
	settings domain.SettingsStore
	audit    domain.AuditStore
	hubs     domain.HubRegistry
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(
	settings domain.SettingsStore,
	audit domain.AuditStore,
	hubs domain.HubRegistry,
	logger *slog.Logger,
) *SettingsService {
	return &SettingsService{
		settings: settings,
		audit:    audit,
		hubs:     hubs,
		logger:   logger.With(slog.String("component", "settings_service")),
	}
}

// Get returns a user's settings, creating a default row on first access.
func (s *SettingsService) Get(ctx context.Context, userID int64) (domain.UserSettings, error) {
	us, err := s.settings.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		us = domain.UserSettings{UserID: userID, HomeRegion: 10000002}
		if err := s.settings.Upsert(ctx, us); err != nil {
			return domain.UserSettings{}, fmt.Errorf("settings_service: create defaults %d: %w", userID, err)
		}
		return us, nil
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("settings_service: get %d: %w", userID, err)
	}
	return us, nil
}

// Update stores a user's settings. The premium flag cannot be set through
// this path; it is carried over from the existing row.
func (s *SettingsService) Update(ctx context.Context, us domain.UserSettings) (domain.UserSettings, error) {
	if !s.hubs.Supported(us.HomeRegion) {
		return domain.UserSettings{}, fmt.Errorf("settings_service: home region %d: %w",
			us.HomeRegion, domain.ErrUnsupportedRegion)
	}

	current, err := s.Get(ctx, us.UserID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	us.Premium = current.Premium

	if err := s.settings.Upsert(ctx, us); err != nil {
		return domain.UserSettings{}, fmt.Errorf("settings_service: update %d: %w", us.UserID, err)
	}
	return us, nil
}

// CreateAPIKey mints a new key for a user and returns the key record plus
// the one-time plaintext credential "<keyID>.<secret>". The secret is
// never stored or shown again.
func (s *SettingsService) CreateAPIKey(ctx context.Context, userID int64, label string) (domain.APIKey, string, error) {
	keyID, err := auth.NewKeyID()
	if err != nil {
		return domain.APIKey{}, "", fmt.Errorf("settings_service: %w", err)
	}
	secret, err := auth.NewKeySecret()
	if err != nil {
		return domain.APIKey{}, "", fmt.Errorf("settings_service: %w", err)
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return domain.APIKey{}, "", fmt.Errorf("settings_service: %w", err)
	}

	key := domain.APIKey{
		KeyID:      keyID,
		UserID:     userID,
		Label:      label,
		SecretHash: hash,
	}
	if err := s.settings.CreateAPIKey(ctx, key); err != nil {
		return domain.APIKey{}, "", fmt.Errorf("settings_service: create api key: %w", err)
	}

	if err := s.audit.Log(ctx, userID, "apikey.created", map[string]any{
		"keyID": keyID,
		"label": label,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
	return key, keyID + "." + secret, nil
}

// DeleteAPIKey removes one of a user's keys.
func (s *SettingsService) DeleteAPIKey(ctx context.Context, userID int64, keyID string) error {
	if err := s.settings.DeleteAPIKey(ctx, userID, keyID); err != nil {
		return fmt.Errorf("settings_service: delete api key %s: %w", keyID, err)
	}
	if err := s.audit.Log(ctx, userID, "apikey.deleted", map[string]any{
		"keyID": keyID,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
	return nil
}

// ListAPIKeys returns a user's keys with the digests blanked.
func (s *SettingsService) ListAPIKeys(ctx context.Context, userID int64) ([]domain.APIKey, error) {
	keys, err := s.settings.ListAPIKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("settings_service: list api keys: %w", err)
	}
	for i := range keys {
		keys[i].SecretHash = ""
	}
	return keys, nil
}
