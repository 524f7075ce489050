// Package postgres provides the PostgreSQL implementation of the analytics
// repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdesk/opsdesk/internal/analytics"
	"github.com/opsdesk/opsdesk/internal/domain"
)

const liveStatuses = `('OPEN', 'ASSIGNED', 'INVESTIGATING', 'REOPENED')`

// Repository implements analytics.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CountByStatus counts incidents per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.IncidentStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM incidents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.IncidentStatus]int)
	for rows.Next() {
		var status domain.IncidentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountLiveBySeverity counts non-terminal incidents per severity.
func (r *Repository) CountLiveBySeverity(ctx context.Context) (map[domain.Severity]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT severity, COUNT(*) FROM incidents WHERE status IN `+liveStatuses+` GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Severity]int)
	for rows.Next() {
		var severity domain.Severity
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}

// CountLiveBySLAStatus counts non-terminal incidents per SLA classification.
func (r *Repository) CountLiveBySLAStatus(ctx context.Context) (map[domain.SLAStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT sla_status, COUNT(*) FROM incidents WHERE status IN `+liveStatuses+` GROUP BY sla_status`)
	if err != nil {
		return nil, fmt.Errorf("count by sla status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SLAStatus]int)
	for rows.Next() {
		var status domain.SLAStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan sla status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountResolvedBetween counts incidents resolved in [from, to).
func (r *Repository) CountResolvedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM incidents
		WHERE resolved_at >= $1 AND resolved_at < $2
	`, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count resolved: %w", err)
	}
	return count, nil
}

// AvgResolutionHours returns the mean report-to-resolution time for
// incidents resolved since the given time. ok is false when none resolved.
func (r *Repository) AvgResolutionHours(ctx context.Context, since time.Time) (float64, bool, error) {
	var avg *float64
	err := r.db.QueryRow(ctx, `
		SELECT AVG(EXTRACT(EPOCH FROM resolved_at - reported_at) / 3600)
		FROM incidents
		WHERE resolved_at >= $1
	`, since).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("avg resolution hours: %w", err)
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

// ComplianceBySeverity counts resolutions and met SLAs per severity over
// [from, to).
func (r *Repository) ComplianceBySeverity(ctx context.Context, from, to time.Time) ([]analytics.ComplianceRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT severity,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE sla_met)
		FROM incidents
		WHERE resolved_at >= $1 AND resolved_at < $2
		GROUP BY severity
		ORDER BY severity
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("compliance by severity: %w", err)
	}
	defer rows.Close()

	var out []analytics.ComplianceRow
	for rows.Next() {
		var row analytics.ComplianceRow
		if err := rows.Scan(&row.Severity, &row.Resolved, &row.Met); err != nil {
			return nil, fmt.Errorf("scan compliance row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
