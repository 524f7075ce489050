package notifications

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/domain"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// Service implements the in-app notification inbox.
type Service struct {
	repo Repository
}

// NewService creates a new inbox service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read. The user scoping prevents marking
// someone else's notification.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}
