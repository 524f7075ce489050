package incidents

import (
	"context"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// ListFilter holds filter options for listing incidents.
type ListFilter struct {
	ReporterID  string // only incidents reported by this user
	ResponderID string // only incidents assigned to this user
	Status      *domain.IncidentStatus
	Severity    *domain.Severity
	Limit       int
	Offset      int
}

// Repository defines the interface for incident storage. The core issues
// exactly two kinds of queries: the live set and by-id lookups; everything
// else is a write.
type Repository interface {
	// Create persists a new incident together with its first status log
	// entry, assigning the id and the per-year sequence number.
	Create(ctx context.Context, inc *domain.Incident, entry *domain.StatusLogEntry) error

	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Incident, error)

	// FindLive returns every incident in a non-terminal status, the set the
	// periodic sweep operates on.
	FindLive(ctx context.Context) ([]*domain.Incident, error)

	// Update persists a mutated incident and appends the log entry in one
	// transaction, conditional on the stored status still being
	// expectedStatus. Returns ErrConcurrentUpdate when the condition fails.
	// The classification fields (sla_status, sla_breached_at) belong to the
	// sweep and are left untouched unless resetSLA is set; only the reopen
	// path sets it, so a breach marker recorded between the caller's read
	// and this write survives.
	Update(ctx context.Context, inc *domain.Incident, expectedStatus domain.IncidentStatus, entry *domain.StatusLogEntry, resetSLA bool) error

	// UpdateSLAStatus atomically moves the stored classification from one
	// value to another, optionally stamping the breach time. Returns false
	// without error when the stored classification no longer matches from,
	// which makes repeated sweeps idempotent.
	UpdateSLAStatus(ctx context.Context, id string, from, to domain.SLAStatus, breachedAt *time.Time) (bool, error)

	AddComment(ctx context.Context, comment *domain.Comment) error
}
