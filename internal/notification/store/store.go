package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/notification"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, read, related_id, action_url, created_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedID,
		n.ActionURL,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, read, related_id, action_url, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var ns []*notification.Notification

	for rows.Next() {
		var n notification.Notification

		var typeStr string

		if err := rows.Scan(
			&n.ID, &n.UserID, &typeStr, &n.Title, &n.Message, &n.Read,
			&n.RelatedID, &n.ActionURL, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}

		n.Type = notification.Type(typeStr)
		ns = append(ns, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}

	return ns, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead flips the read flag. Rows already read match the WHERE clause,
// so repeated calls stay no-ops rather than errors.
func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	if affected == 0 {
		return notification.ErrNotFound
	}

	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}

	return nil
}
