// Package analytics aggregates incident and SLA figures for the dashboard,
// the compliance report and the daily summary.
package analytics

import (
	"context"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// ComplianceRow holds resolution counts for one severity over a range.
type ComplianceRow struct {
	Severity domain.Severity `json:"severity"`
	Resolved int             `json:"resolved"`
	Met      int             `json:"met"`
}

// Repository defines the interface for analytics data access.
type Repository interface {
	CountByStatus(ctx context.Context) (map[domain.IncidentStatus]int, error)
	CountLiveBySeverity(ctx context.Context) (map[domain.Severity]int, error)
	CountLiveBySLAStatus(ctx context.Context) (map[domain.SLAStatus]int, error)
	CountResolvedBetween(ctx context.Context, from, to time.Time) (int, error)
	AvgResolutionHours(ctx context.Context, since time.Time) (float64, bool, error)
	ComplianceBySeverity(ctx context.Context, from, to time.Time) ([]ComplianceRow, error)
}
