// Package postgres provides the PostgreSQL implementation of the incident
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/incidents"
)

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const incidentColumns = `
	id, number, title, description, severity, status,
	reporter_id, responder_id, affected_service, impacted_users,
	reported_at, acknowledged_at, resolved_at, closed_at,
	sla_deadline, sla_status, sla_breached_at, sla_met,
	created_at, updated_at`

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID, &inc.Number, &inc.Title, &inc.Description, &inc.Severity, &inc.Status,
		&inc.ReporterID, &inc.ResponderID, &inc.AffectedService, &inc.ImpactedUsers,
		&inc.ReportedAt, &inc.AcknowledgedAt, &inc.ResolvedAt, &inc.ClosedAt,
		&inc.SLADeadline, &inc.SLAStatus, &inc.SLABreachedAt, &inc.SLAMet,
		&inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// Create inserts the incident, its first status log entry and the per-year
// sequence number in one transaction.
func (r *Repository) Create(ctx context.Context, inc *domain.Incident, entry *domain.StatusLogEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	year := inc.ReportedAt.Year()
	var seq int
	err = tx.QueryRow(ctx, `
		INSERT INTO incident_sequences (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = incident_sequences.value + 1
		RETURNING value
	`, year).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next incident sequence: %w", err)
	}
	inc.Number = fmt.Sprintf("INC-%d-%04d", year, seq)

	err = tx.QueryRow(ctx, `
		INSERT INTO incidents (
			number, title, description, severity, status,
			reporter_id, responder_id, affected_service, impacted_users,
			reported_at, sla_deadline, sla_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`,
		inc.Number, inc.Title, inc.Description, inc.Severity, inc.Status,
		inc.ReporterID, inc.ResponderID, inc.AffectedService, inc.ImpactedUsers,
		inc.ReportedAt, inc.SLADeadline, inc.SLAStatus,
	).Scan(&inc.ID, &inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	entry.IncidentID = inc.ID
	if err := insertLogEntry(ctx, tx, entry); err != nil {
		return err
	}
	inc.StatusLog = append(inc.StatusLog, *entry)

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID loads an incident with its status log and comments.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	inc, err := scanIncident(r.db.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	if inc.StatusLog, err = r.loadStatusLog(ctx, id); err != nil {
		return nil, err
	}
	if inc.Comments, err = r.loadComments(ctx, id); err != nil {
		return nil, err
	}
	return inc, nil
}

// List retrieves incidents matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter incidents.ListFilter) ([]*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	args := []any{}

	if filter.ReporterID != "" {
		args = append(args, filter.ReporterID)
		query += fmt.Sprintf(" AND reporter_id = $%d", len(args))
	}
	if filter.ResponderID != "" {
		args = append(args, filter.ResponderID)
		query += fmt.Sprintf(" AND responder_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}

	query += " ORDER BY reported_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryIncidents(ctx, query, args...)
}

// FindLive returns every incident in a non-terminal status.
func (r *Repository) FindLive(ctx context.Context) ([]*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + `
		FROM incidents
		WHERE status IN ('OPEN', 'ASSIGNED', 'INVESTIGATING', 'REOPENED')
		ORDER BY sla_deadline`
	return r.queryIncidents(ctx, query)
}

func (r *Repository) queryIncidents(ctx context.Context, query string, args ...any) ([]*domain.Incident, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var list []*domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, inc)
	}
	return list, rows.Err()
}

const updateIncident = `
	UPDATE incidents
	SET severity = $3, status = $4, responder_id = $5,
	    acknowledged_at = $6, resolved_at = $7, closed_at = $8,
	    sla_deadline = $9, sla_met = $10,
	    updated_at = now()
	WHERE id = $1 AND status = $2
	RETURNING updated_at`

const updateIncidentResetSLA = `
	UPDATE incidents
	SET severity = $3, status = $4, responder_id = $5,
	    acknowledged_at = $6, resolved_at = $7, closed_at = $8,
	    sla_deadline = $9, sla_met = $10,
	    sla_status = $11, sla_breached_at = $12,
	    updated_at = now()
	WHERE id = $1 AND status = $2
	RETURNING updated_at`

// Update persists a mutated incident and appends the log entry, conditional
// on the stored status still matching expectedStatus. The sla_status and
// sla_breached_at columns are owned by the sweep's compare-and-swap and are
// only written here when resetSLA is set (the reopen path); a breach marker
// recorded by a sweep between the caller's read and this write is preserved.
func (r *Repository) Update(ctx context.Context, inc *domain.Incident, expectedStatus domain.IncidentStatus, entry *domain.StatusLogEntry, resetSLA bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	query := updateIncident
	args := []any{
		inc.ID, expectedStatus,
		inc.Severity, inc.Status, inc.ResponderID,
		inc.AcknowledgedAt, inc.ResolvedAt, inc.ClosedAt,
		inc.SLADeadline, inc.SLAMet,
	}
	if resetSLA {
		query = updateIncidentResetSLA
		args = append(args, inc.SLAStatus, inc.SLABreachedAt)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.updateConflict(ctx, inc.ID)
		}
		return fmt.Errorf("update incident: %w", err)
	}

	entry.IncidentID = inc.ID
	if err := insertLogEntry(ctx, tx, entry); err != nil {
		return err
	}
	inc.StatusLog = append(inc.StatusLog, *entry)

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// updateConflict distinguishes a missing incident from one whose status
// changed between read and write.
func (r *Repository) updateConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check incident exists: %w", err)
	}
	if !exists {
		return incidents.ErrIncidentNotFound
	}
	return incidents.ErrConcurrentUpdate
}

// UpdateSLAStatus atomically moves the classification from one value to
// another. The breach timestamp is only ever written once: COALESCE keeps
// an existing value.
func (r *Repository) UpdateSLAStatus(ctx context.Context, id string, from, to domain.SLAStatus, breachedAt *time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE incidents
		SET sla_status = $3,
		    sla_breached_at = COALESCE(sla_breached_at, $4),
		    updated_at = now()
		WHERE id = $1 AND sla_status = $2
	`, id, from, to, breachedAt)
	if err != nil {
		return false, fmt.Errorf("update sla status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddComment appends a comment row.
func (r *Repository) AddComment(ctx context.Context, comment *domain.Comment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO incident_comments (incident_id, author_id, author_role, body, internal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		comment.IncidentID, comment.AuthorID, comment.AuthorRole,
		comment.Body, comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *Repository) loadStatusLog(ctx context.Context, incidentID string) ([]domain.StatusLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, incident_id, old_status, new_status, actor_id, note, created_at
		FROM incident_status_log
		WHERE incident_id = $1
		ORDER BY created_at, id
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("load status log: %w", err)
	}
	defer rows.Close()

	var log []domain.StatusLogEntry
	for rows.Next() {
		var e domain.StatusLogEntry
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.OldStatus, &e.NewStatus, &e.ActorID, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status log entry: %w", err)
		}
		log = append(log, e)
	}
	return log, rows.Err()
}

func (r *Repository) loadComments(ctx context.Context, incidentID string) ([]domain.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, incident_id, author_id, author_role, body, internal, created_at
		FROM incident_comments
		WHERE incident_id = $1
		ORDER BY created_at, id
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.IncidentID, &c.AuthorID, &c.AuthorRole, &c.Body, &c.Internal, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func insertLogEntry(ctx context.Context, tx pgx.Tx, entry *domain.StatusLogEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO incident_status_log (incident_id, old_status, new_status, actor_id, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		entry.IncidentID, entry.OldStatus, entry.NewStatus, entry.ActorID, entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status log entry: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}
