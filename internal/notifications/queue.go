package notifications

import "time"

// QueueStatus represents the status of an outbox item.
type QueueStatus string

// Queue statuses.
const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusSent       QueueStatus = "sent"
	QueueStatusFailed     QueueStatus = "failed"
)

// QueueItem is a rendered email waiting in the outbox. Rendering happens at
// dispatch time, so the worker only has to deliver.
type QueueItem struct {
	ID            string
	RecipientID   string
	Email         string
	Subject       string
	Body          string
	Status        QueueStatus
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}

// QueueStats holds outbox counts by status.
type QueueStats struct {
	Pending    int
	Processing int
	Sent       int
	Failed     int
}
