package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsdesk/opsdesk/internal/analytics"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/incidents"
	"github.com/opsdesk/opsdesk/internal/notifications"
)

// SummaryJob sends every active admin the daily incident digest.
type SummaryJob struct {
	analytics *analytics.Service
	roster    incidents.Roster
	events    incidents.EventEmitter
	now       func() time.Time
}

// NewSummaryJob creates a new daily summary job.
func NewSummaryJob(analytics *analytics.Service, roster incidents.Roster, events incidents.EventEmitter) *SummaryJob {
	return &SummaryJob{
		analytics: analytics,
		roster:    roster,
		events:    events,
		now:       time.Now,
	}
}

// Run computes today's counts and emits one daily-summary event per admin.
func (j *SummaryJob) Run(ctx context.Context) {
	day := j.now()
	counts, err := j.analytics.SummaryForDay(ctx, day)
	if err != nil {
		slog.Error("daily summary aggregation failed", "error", err)
		return
	}

	admins, err := j.roster.ListActiveAdmins(ctx)
	if err != nil {
		slog.Error("daily summary admin lookup failed", "error", err)
		return
	}

	payload := notifications.Payload{
		Summary: &notifications.SummaryData{
			Date:          day,
			Open:          counts.Open,
			InProgress:    counts.InProgress,
			ResolvedToday: counts.ResolvedToday,
			Breached:      counts.Breached,
		},
	}

	for _, admin := range admins {
		j.events.Emit(ctx, notifications.Event{
			Kind:        domain.NotificationDailySummary,
			RecipientID: admin.ID,
			Payload:     payload,
		})
	}

	slog.Info("daily summary sent",
		"admins", len(admins),
		"open", counts.Open,
		"in_progress", counts.InProgress,
		"resolved_today", counts.ResolvedToday,
		"breached", counts.Breached,
	)
}
