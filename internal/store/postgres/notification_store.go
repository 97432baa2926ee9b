package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eveexchange/backend/internal/domain"
)

// NotificationStore implements domain.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new NotificationStore backed by the
// given pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Create inserts a notification. The caller supplies the id.
func (s *NotificationStore) Create(ctx context.Context, n domain.Notification) error {
	const query = `
		INSERT INTO notifications (id, user_id, kind, message, read)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.pool.Exec(ctx, query, n.ID, n.UserID, n.Kind, n.Message, n.Read); err != nil {
		return fmt.Errorf("postgres: create notification: %w", err)
	}
	return nil
}

// SetRead flips the read flag on one of a user's notifications.
func (s *NotificationStore) SetRead(ctx context.Context, userID int64, id string, read bool) error {
	const query = `UPDATE notifications SET read = $3 WHERE user_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, query, userID, id, read)
	if err != nil {
		return fmt.Errorf("postgres: set notification read %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetAllRead marks every unread notification of a user as read.
func (s *NotificationStore) SetAllRead(ctx context.Context, userID int64) error {
	const query = `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("postgres: set all notifications read %d: %w", userID, err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID int64, opts domain.ListOpts) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, kind, message, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []any{userID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list notifications %d: %w", userID, err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list notifications rows: %w", err)
	}
	return notifications, nil
}

// Compile-time interface check.
var _ domain.NotificationStore = (*NotificationStore)(nil)
