// Package monitor runs the periodic SLA sweep and the daily summary. The
// sweep re-evaluates every live incident against the clock and escalates
// its SLA classification; the write path is a compare-and-swap so overlap
// with user traffic or another instance never double-fires an alert.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/incidents"
	"github.com/opsdesk/opsdesk/internal/notifications"
	"github.com/opsdesk/opsdesk/internal/pkg/ctxlog"
	"github.com/opsdesk/opsdesk/internal/sla"
)

// ErrSweepRunning is returned when a sweep is requested while one is in
// flight. Overlapping runs are skipped, not queued.
var ErrSweepRunning = errors.New("sweep already running")

// Config holds monitor configuration.
type Config struct {
	SweepInterval time.Duration
	SweepTimeout  time.Duration
	Workers       int
	SummaryTime   string
}

// DefaultConfig returns default monitor configuration.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 15 * time.Minute,
		SweepTimeout:  2 * time.Minute,
		Workers:       4,
		SummaryTime:   "09:00",
	}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Evaluated int
	Warnings  int
	Breaches  int
	Skipped   int
}

// Monitor evaluates live incidents against their SLA deadlines.
type Monitor struct {
	config  Config
	repo    incidents.Repository
	roster  incidents.Roster
	events  incidents.EventEmitter
	now     func() time.Time
	running atomic.Bool
}

// New creates a new monitor.
func New(config Config, repo incidents.Repository, roster incidents.Roster, events incidents.EventEmitter) *Monitor {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Monitor{
		config: config,
		repo:   repo,
		roster: roster,
		events: events,
		now:    time.Now,
	}
}

// Sweep runs one pass over all live incidents. Only one sweep runs at a
// time; a second caller gets ErrSweepRunning immediately.
func (m *Monitor) Sweep(ctx context.Context) (*SweepResult, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrSweepRunning
	}
	defer m.running.Store(false)

	if m.config.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.SweepTimeout)
		defer cancel()
	}

	start := m.now()
	log := ctxlog.FromContext(ctx)

	live, err := m.repo.FindLive(ctx)
	if err != nil {
		recordSweep("error", 0)
		return nil, err
	}

	result := &SweepResult{Evaluated: len(live)}
	var mu sync.Mutex

	jobs := make(chan *domain.Incident)
	var wg sync.WaitGroup
	for i := 0; i < m.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inc := range jobs {
				warned, breached, skipped := m.sweepOne(ctx, inc)
				mu.Lock()
				if warned {
					result.Warnings++
				}
				if breached {
					result.Breaches++
				}
				if skipped {
					result.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, inc := range live {
		select {
		case jobs <- inc:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			recordSweep("timeout", time.Since(start))
			return result, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	recordSweep("ok", time.Since(start))
	log.Info("sla sweep finished",
		"evaluated", result.Evaluated,
		"warnings", result.Warnings,
		"breaches", result.Breaches,
		"skipped", result.Skipped,
		"duration", time.Since(start),
	)
	return result, nil
}

// sweepOne escalates one incident's classification if the clock demands it.
// The classification only moves forward here; recovery happens through the
// incident lifecycle (reopen), never through the sweep.
func (m *Monitor) sweepOne(ctx context.Context, inc *domain.Incident) (warned, breached, skipped bool) {
	now := m.now()
	eval := sla.Evaluate(inc, now)
	log := ctxlog.FromContext(ctx)

	switch {
	case eval.Status == domain.SLAStatusBreached && inc.SLAStatus != domain.SLAStatusBreached:
		breachedAt := now
		ok, err := m.repo.UpdateSLAStatus(ctx, inc.ID, inc.SLAStatus, domain.SLAStatusBreached, &breachedAt)
		if err != nil {
			log.Error("sweep breach update failed", "incident_id", inc.ID, "error", err)
			return false, false, false
		}
		if !ok {
			// Someone else moved it first; their sweep owns the alert.
			return false, false, true
		}
		recordTransition("breach")
		m.alert(ctx, domain.NotificationSLABreach, inc, eval)
		return false, true, false

	case eval.Status == domain.SLAStatusApproaching && inc.SLAStatus == domain.SLAStatusWithin:
		ok, err := m.repo.UpdateSLAStatus(ctx, inc.ID, domain.SLAStatusWithin, domain.SLAStatusApproaching, nil)
		if err != nil {
			log.Error("sweep warning update failed", "incident_id", inc.ID, "error", err)
			return false, false, false
		}
		if !ok {
			return false, false, true
		}
		recordTransition("warning")
		m.alert(ctx, domain.NotificationSLAWarning, inc, eval)
		return true, false, false
	}

	return false, false, false
}

// alert notifies the assigned responder, once. Breaches additionally go to
// every active admin; an unassigned incident still gets its breach escalated
// to the admins, while a warning with no responder goes nowhere.
func (m *Monitor) alert(ctx context.Context, kind domain.NotificationKind, inc *domain.Incident, eval sla.Evaluation) {
	payload := notifications.Payload{
		IncidentNumber: inc.Number,
		Title:          inc.Title,
		Severity:       inc.Severity,
		NewStatus:      inc.Status,
		Deadline:       inc.SLADeadline,
		TimeRemaining:  eval.Remaining,
	}

	recipients := make(map[string]struct{})
	if inc.ResponderID != nil {
		recipients[*inc.ResponderID] = struct{}{}
	}
	if kind == domain.NotificationSLABreach {
		admins, err := m.roster.ListActiveAdmins(ctx)
		if err != nil {
			ctxlog.FromContext(ctx).Error("list admins for sla alert", "error", err)
		}
		for _, admin := range admins {
			recipients[admin.ID] = struct{}{}
		}
	}

	for id := range recipients {
		m.events.Emit(ctx, notifications.Event{
			Kind:        kind,
			RecipientID: id,
			IncidentID:  inc.ID,
			Payload:     payload,
		})
	}
}
