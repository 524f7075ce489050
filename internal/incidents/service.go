// Package incidents implements the incident lifecycle: the status state
// machine, assignment, severity edits and the append-only audit log.
package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/notifications"
	"github.com/opsdesk/opsdesk/internal/pkg/ctxlog"
	"github.com/opsdesk/opsdesk/internal/sla"
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	ID   string
	Role domain.Role
}

// Roster resolves user references. Injected so the service never reaches
// into ambient state for responder or admin lookups.
type Roster interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListActiveAdmins(ctx context.Context) ([]*domain.User, error)
}

// EventEmitter accepts notification events. Dispatch is fire-and-forget:
// implementations log failures and never propagate them.
type EventEmitter interface {
	Emit(ctx context.Context, ev notifications.Event)
}

// Service implements incident business logic.
type Service struct {
	repo   Repository
	roster Roster
	calc   *sla.Calculator
	events EventEmitter
	now    func() time.Time
}

// NewService creates a new incident service. events may be nil when
// notifications are disabled.
func NewService(repo Repository, roster Roster, calc *sla.Calculator, events EventEmitter) *Service {
	return &Service{
		repo:   repo,
		roster: roster,
		calc:   calc,
		events: events,
		now:    time.Now,
	}
}

// CreateInput holds data for reporting a new incident.
type CreateInput struct {
	Title           string
	Description     string
	Severity        domain.Severity
	AffectedService string
	ImpactedUsers   *int
}

// Create reports a new incident. The SLA deadline is computed from severity
// and the report time; every active admin is notified.
func (s *Service) Create(ctx context.Context, input CreateInput, actor Actor) (*domain.Incident, error) {
	if !input.Severity.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, input.Severity)
	}

	now := s.now()
	deadline, err := s.calc.ComputeDeadline(ctx, input.Severity, now)
	if err != nil {
		return nil, err
	}

	inc := &domain.Incident{
		Title:           input.Title,
		Description:     input.Description,
		Severity:        input.Severity,
		Status:          domain.IncidentStatusOpen,
		ReporterID:      actor.ID,
		AffectedService: input.AffectedService,
		ImpactedUsers:   input.ImpactedUsers,
		ReportedAt:      now,
		SLADeadline:     deadline,
		SLAStatus:       domain.SLAStatusWithin,
	}

	entry := &domain.StatusLogEntry{
		NewStatus: domain.IncidentStatusOpen,
		ActorID:   actor.ID,
		Note:      "Incident reported",
	}

	if err := s.repo.Create(ctx, inc, entry); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	s.notifyAdmins(ctx, domain.NotificationCreated, inc, "")

	return inc, nil
}

// Get returns an incident with its status log and comments, enforcing
// role-based access.
func (s *Service) Get(ctx context.Context, id string, actor Actor) (*domain.Incident, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(inc, actor) {
		return nil, ErrAccessDenied
	}
	if actor.Role == domain.RoleReporter {
		inc.Comments = publicComments(inc.Comments)
	}
	return inc, nil
}

func publicComments(comments []domain.Comment) []domain.Comment {
	out := comments[:0]
	for _, c := range comments {
		if !c.Internal {
			out = append(out, c)
		}
	}
	return out
}

// List returns incidents visible to the actor: reporters see their own,
// responders see their assignments, admins see everything.
func (s *Service) List(ctx context.Context, filter ListFilter, actor Actor) ([]*domain.Incident, error) {
	switch actor.Role {
	case domain.RoleReporter:
		filter.ReporterID = actor.ID
	case domain.RoleResponder:
		filter.ResponderID = actor.ID
	}
	return s.repo.List(ctx, filter)
}

// Assign hands an open incident to an active responder and moves it to
// ASSIGNED. The responder is notified.
func (s *Service) Assign(ctx context.Context, id, responderID string, actor Actor) (*domain.Incident, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if inc.ResponderID != nil {
		return nil, ErrAlreadyAssigned
	}
	if inc.Status != domain.IncidentStatusOpen {
		return nil, fmt.Errorf("%w: cannot assign incident in status %s", ErrInvalidTransition, inc.Status)
	}

	responder, err := s.roster.GetUser(ctx, responderID)
	if err != nil || !responder.Active || responder.Role != domain.RoleResponder {
		return nil, ErrInvalidResponder
	}

	oldStatus := inc.Status
	inc.ResponderID = &responderID
	inc.Status = domain.IncidentStatusAssigned

	entry := &domain.StatusLogEntry{
		OldStatus: &oldStatus,
		NewStatus: inc.Status,
		ActorID:   actor.ID,
		Note:      fmt.Sprintf("Assigned to %s", responder.Name),
	}

	if err := s.repo.Update(ctx, inc, oldStatus, entry, false); err != nil {
		return nil, err
	}

	s.emit(ctx, notifications.Event{
		Kind:        domain.NotificationAssigned,
		RecipientID: responderID,
		IncidentID:  inc.ID,
		Payload:     payloadFor(inc, oldStatus, ""),
	})

	return inc, nil
}

// UpdateStatus moves an incident along the transition table. Entering
// INVESTIGATING for the first time records the acknowledgement timestamp;
// entering RESOLVED stamps the resolution and the sla-met verdict; entering
// REOPENED restarts the SLA clock from now.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus domain.IncidentStatus, actor Actor, note string) (*domain.Incident, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleResponder &&
		(inc.ResponderID == nil || *inc.ResponderID != actor.ID) {
		return nil, ErrAccessDenied
	}

	if !CanTransition(inc.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inc.Status, newStatus)
	}

	oldStatus := inc.Status
	now := s.now()
	resetSLA := false

	switch newStatus {
	case domain.IncidentStatusInvestigating:
		if inc.AcknowledgedAt == nil {
			inc.AcknowledgedAt = &now
		}
	case domain.IncidentStatusResolved:
		inc.ResolvedAt = &now
		met := !now.After(inc.SLADeadline)
		inc.SLAMet = &met
	case domain.IncidentStatusClosed:
		inc.ClosedAt = &now
	case domain.IncidentStatusReopened:
		// Full SLA reset: the clock restarts from the reopening time.
		deadline, err := s.calc.ComputeDeadline(ctx, inc.Severity, now)
		if err != nil {
			return nil, err
		}
		inc.ResolvedAt = nil
		inc.ClosedAt = nil
		inc.SLAMet = nil
		inc.SLADeadline = deadline
		inc.SLAStatus = domain.SLAStatusWithin
		inc.SLABreachedAt = nil
		resetSLA = true
	}

	inc.Status = newStatus

	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	}
	entry := &domain.StatusLogEntry{
		OldStatus: &oldStatus,
		NewStatus: newStatus,
		ActorID:   actor.ID,
		Note:      note,
	}

	if err := s.repo.Update(ctx, inc, oldStatus, entry, resetSLA); err != nil {
		return nil, err
	}

	kind := domain.NotificationStatusChanged
	if newStatus == domain.IncidentStatusResolved {
		kind = domain.NotificationResolved
	}
	s.emit(ctx, notifications.Event{
		Kind:        kind,
		RecipientID: inc.ReporterID,
		IncidentID:  inc.ID,
		Payload:     payloadFor(inc, oldStatus, note),
	})

	return inc, nil
}

// UpdateSeverity changes severity while the incident is open and recomputes
// the deadline from the original report time, so raising severity tightens
// the deadline retroactively.
func (s *Service) UpdateSeverity(ctx context.Context, id string, newSeverity domain.Severity, actor Actor) (*domain.Incident, error) {
	if !newSeverity.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, newSeverity)
	}

	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inc.Status.IsLive() {
		return nil, ErrSeverityLocked
	}

	deadline, err := s.calc.ComputeDeadline(ctx, newSeverity, inc.ReportedAt)
	if err != nil {
		return nil, err
	}

	oldSeverity := inc.Severity
	inc.Severity = newSeverity
	inc.SLADeadline = deadline

	entry := &domain.StatusLogEntry{
		OldStatus: &inc.Status,
		NewStatus: inc.Status,
		ActorID:   actor.ID,
		Note:      fmt.Sprintf("Severity changed from %s to %s", oldSeverity, newSeverity),
	}

	if err := s.repo.Update(ctx, inc, inc.Status, entry, false); err != nil {
		return nil, err
	}

	return inc, nil
}

// AddComment appends a comment to an incident the actor can view.
func (s *Service) AddComment(ctx context.Context, id, body string, internal bool, actor Actor) (*domain.Comment, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(inc, actor) {
		return nil, ErrAccessDenied
	}

	comment := &domain.Comment{
		IncidentID: inc.ID,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Body:       body,
		Internal:   internal,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return comment, nil
}

func canView(inc *domain.Incident, actor Actor) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleReporter:
		return inc.ReporterID == actor.ID
	case domain.RoleResponder:
		return inc.ResponderID == nil || *inc.ResponderID == actor.ID
	}
	return false
}

func (s *Service) emit(ctx context.Context, ev notifications.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, ev)
}

func (s *Service) notifyAdmins(ctx context.Context, kind domain.NotificationKind, inc *domain.Incident, note string) {
	if s.events == nil {
		return
	}
	admins, err := s.roster.ListActiveAdmins(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Error("list admins for notification", "error", err)
		return
	}
	for _, admin := range admins {
		s.events.Emit(ctx, notifications.Event{
			Kind:        kind,
			RecipientID: admin.ID,
			IncidentID:  inc.ID,
			Payload:     payloadFor(inc, inc.Status, note),
		})
	}
}

func payloadFor(inc *domain.Incident, oldStatus domain.IncidentStatus, note string) notifications.Payload {
	return notifications.Payload{
		IncidentNumber: inc.Number,
		Title:          inc.Title,
		Severity:       inc.Severity,
		OldStatus:      oldStatus,
		NewStatus:      inc.Status,
		Deadline:       inc.SLADeadline,
		Note:           note,
	}
}
