package notifications

import (
	"context"
	"log/slog"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Directory resolves recipient users for email delivery.
type Directory interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Dispatcher fans an event out to delivery channels: it writes the in-app
// notification row and, when email delivery is on, enqueues a rendered email.
// Emit never returns an error; delivery problems are logged and dropped so
// the incident core is unaffected.
type Dispatcher struct {
	repo         Repository
	directory    Directory
	renderer     *Renderer
	emailEnabled bool
	maxAttempts  int
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(repo Repository, directory Directory, renderer *Renderer, emailEnabled bool, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{
		repo:         repo,
		directory:    directory,
		renderer:     renderer,
		emailEnabled: emailEnabled,
		maxAttempts:  maxAttempts,
	}
}

// Emit delivers one event.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	recordEventEmitted(string(ev.Kind))

	notification := &domain.Notification{
		UserID:   ev.RecipientID,
		Kind:     ev.Kind,
		Title:    d.renderer.Subject(ev),
		Message:  d.renderer.Message(ev),
		Priority: PriorityFor(ev),
	}
	if ev.IncidentID != "" {
		id := ev.IncidentID
		notification.IncidentID = &id
	}

	if err := d.repo.CreateNotification(ctx, notification); err != nil {
		slog.Error("failed to create notification",
			"kind", ev.Kind,
			"recipient_id", ev.RecipientID,
			"error", err,
		)
	}

	if !d.emailEnabled {
		return
	}
	d.enqueueEmail(ctx, ev)
}

func (d *Dispatcher) enqueueEmail(ctx context.Context, ev Event) {
	user, err := d.directory.GetUser(ctx, ev.RecipientID)
	if err != nil {
		slog.Error("failed to resolve notification recipient",
			"recipient_id", ev.RecipientID,
			"error", err,
		)
		return
	}
	if !user.Active {
		slog.Debug("skipping email for inactive user", "recipient_id", ev.RecipientID)
		return
	}

	subject, body, err := d.renderer.Render(ev)
	if err != nil {
		slog.Error("failed to render email",
			"kind", ev.Kind,
			"error", err,
		)
		return
	}

	item := &QueueItem{
		RecipientID: user.ID,
		Email:       user.Email,
		Subject:     subject,
		Body:        body,
		Status:      QueueStatusPending,
		MaxAttempts: d.maxAttempts,
	}
	if err := d.repo.Enqueue(ctx, item); err != nil {
		slog.Error("failed to enqueue email",
			"kind", ev.Kind,
			"recipient_id", ev.RecipientID,
			"error", err,
		)
		return
	}

	slog.Debug("email enqueued",
		"kind", ev.Kind,
		"recipient_id", ev.RecipientID,
		"item_id", item.ID,
	)
}
