// Package notifications turns incident events into in-app notifications and
// queued emails, and delivers the queue through a background worker.
package notifications

import (
	"context"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Repository defines the interface for notification data access.
type Repository interface {
	// In-app inbox
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error

	// Email outbox
	Enqueue(ctx context.Context, item *QueueItem) error
	FetchPending(ctx context.Context, limit int) ([]*QueueItem, error)
	MarkAsSent(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, id string, sendErr error) error
	MarkForRetry(ctx context.Context, id string, sendErr error, nextAttemptAt time.Time) error
	GetQueueStats(ctx context.Context) (*QueueStats, error)
}
