package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/quickbasket/internal/model"
)

func (s *PostgresStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshal notification metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, read, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, metadata, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, f NotificationFilter) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, read, metadata, created_at FROM notifications`
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if f.Type != "" {
		args = append(args, f.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.UnreadOnly {
		conditions = append(conditions, "read = false")
	}
	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &metadata, &n.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *PostgresStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*model.Notification, error) {
	var n model.Notification
	var metadata []byte
	err := s.db.QueryRowContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, type, title, message, read, metadata, created_at`,
		notificationID, userID).
		Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &metadata, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
	}
	return &n, nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
