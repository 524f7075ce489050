// Package postgres provides the PostgreSQL implementation of the
// notifications repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/notifications"
)

// Repository implements notifications.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts an in-app notification row.
func (r *Repository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, kind, incident_id, title, message, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		n.UserID, n.Kind, n.IncidentID, n.Title, n.Message, n.Priority,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForUser returns a page of the user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, kind, incident_id, title, message, priority, read, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.IncidentID, &n.Title, &n.Message, &n.Priority, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CountUnread returns the number of unread notifications for a user.
func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read, scoped to its owner.
func (r *Repository) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Enqueue inserts a pending queue item.
func (r *Repository) Enqueue(ctx context.Context, item *notifications.QueueItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notification_queue (recipient_id, email, subject, body, status, max_attempts, next_attempt_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, now())
		RETURNING id, created_at, updated_at
	`,
		item.RecipientID, item.Email, item.Subject, item.Body, item.MaxAttempts,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// FetchPending claims up to limit due items. SKIP LOCKED lets concurrent
// workers claim disjoint batches; claimed rows move to processing so a
// crashed worker's batch can be detected.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]*notifications.QueueItem, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE notification_queue
		SET status = 'processing', updated_at = now()
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status = 'pending' AND next_attempt_at <= now()
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, recipient_id, email, subject, body, status,
		          attempts, max_attempts, next_attempt_at, last_error,
		          created_at, updated_at, sent_at
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending emails: %w", err)
	}
	defer rows.Close()

	var items []*notifications.QueueItem
	for rows.Next() {
		var item notifications.QueueItem
		err := rows.Scan(
			&item.ID, &item.RecipientID, &item.Email, &item.Subject, &item.Body, &item.Status,
			&item.Attempts, &item.MaxAttempts, &item.NextAttemptAt, &item.LastError,
			&item.CreatedAt, &item.UpdatedAt, &item.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// MarkAsSent finalizes a delivered item.
func (r *Repository) MarkAsSent(ctx context.Context, id string) error {
	return r.finalize(ctx, id, `
		UPDATE notification_queue
		SET status = 'sent', sent_at = now(), updated_at = now()
		WHERE id = $1
	`)
}

// MarkAsFailed finalizes an undeliverable item.
func (r *Repository) MarkAsFailed(ctx context.Context, id string, sendErr error) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE id = $1
	`, id, errMessage(sendErr))
	if err != nil {
		return fmt.Errorf("mark as failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

// MarkForRetry returns an item to pending with a future attempt time.
func (r *Repository) MarkForRetry(ctx context.Context, id string, sendErr error, nextAttemptAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'pending', attempts = attempts + 1, last_error = $2,
		    next_attempt_at = $3, updated_at = now()
		WHERE id = $1
	`, id, errMessage(sendErr), nextAttemptAt)
	if err != nil {
		return fmt.Errorf("mark for retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

// GetQueueStats returns outbox counts by status.
func (r *Repository) GetQueueStats(ctx context.Context) (*notifications.QueueStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM notification_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := &notifications.QueueStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}
		switch notifications.QueueStatus(status) {
		case notifications.QueueStatusPending:
			stats.Pending = count
		case notifications.QueueStatusProcessing:
			stats.Processing = count
		case notifications.QueueStatusSent:
			stats.Sent = count
		case notifications.QueueStatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

func (r *Repository) finalize(ctx context.Context, id, query string) error {
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}
