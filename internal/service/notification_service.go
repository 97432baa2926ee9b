package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eveexchange/backend/internal/domain"
)

// NotificationService handles the user notification feed.
type NotificationService struct {
	notifications domain.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications domain.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_service")),
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, opts domain.ListOpts) ([]domain.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("notification_service: list: %w", err)
	}
	return notifications, nil
}

// SetRead flips the read flag on one notification.
func (s *NotificationService) SetRead(ctx context.Context, userID int64, id string, read bool) error {
	if err := s.notifications.SetRead(ctx, userID, id, read); err != nil {
		return fmt.Errorf("notification_service: set read %s: %w", id, err)
	}
	return nil
}

// ReadAll marks every unread notification of a user as read.
func (s *NotificationService) ReadAll(ctx context.Context, userID int64) error {
	if err := s.notifications.SetAllRead(ctx, userID); err != nil {
		return fmt.Errorf("notification_service: read all: %w", err)
	}
	return nil
}
