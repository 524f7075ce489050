package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// ErrInvalidRange is returned when a report range is inverted.
var ErrInvalidRange = errors.New("invalid report range")

// DashboardStats is the live operational picture.
type DashboardStats struct {
	Open               int                     `json:"open"`
	Assigned           int                     `json:"assigned"`
	Investigating      int                     `json:"investigating"`
	Reopened           int                     `json:"reopened"`
	ResolvedToday      int                     `json:"resolved_today"`
	BySeverity         map[domain.Severity]int `json:"by_severity"`
	ApproachingBreach  int                     `json:"approaching_breach"`
	Breached           int                     `json:"breached"`
	AvgResolutionHours *float64                `json:"avg_resolution_hours,omitempty"`
}

// ComplianceReport summarizes SLA outcomes over a date range.
type ComplianceReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalResolved int             `json:"total_resolved"`
	TotalMet      int             `json:"total_met"`
	CompliancePct float64         `json:"compliance_pct"`
	BySeverity    []ComplianceRow `json:"by_severity"`
}

// SummaryCounts are the aggregates carried by the daily summary email.
type SummaryCounts struct {
	Open          int
	InProgress    int
	ResolvedToday int
	Breached      int
}

// Service implements analytics queries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new analytics service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Dashboard returns the live operational stats.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	bySeverity, err := s.repo.CountLiveBySeverity(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	bySLA, err := s.repo.CountLiveBySLAStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by sla status: %w", err)
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	resolvedToday, err := s.repo.CountResolvedBetween(ctx, dayStart, now)
	if err != nil {
		return nil, fmt.Errorf("count resolved today: %w", err)
	}

	stats := &DashboardStats{
		Open:              byStatus[domain.IncidentStatusOpen],
		Assigned:          byStatus[domain.IncidentStatusAssigned],
		Investigating:     byStatus[domain.IncidentStatusInvestigating],
		Reopened:          byStatus[domain.IncidentStatusReopened],
		ResolvedToday:     resolvedToday,
		BySeverity:        bySeverity,
		ApproachingBreach: bySLA[domain.SLAStatusApproaching],
		Breached:          bySLA[domain.SLAStatusBreached],
	}

	avg, ok, err := s.repo.AvgResolutionHours(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("avg resolution: %w", err)
	}
	if ok {
		stats.AvgResolutionHours = &avg
	}

	return stats, nil
}

// Compliance builds the SLA compliance report for a date range.
func (s *Service) Compliance(ctx context.Context, from, to time.Time) (*ComplianceReport, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	rows, err := s.repo.ComplianceBySeverity(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("compliance by severity: %w", err)
	}

	report := &ComplianceReport{From: from, To: to, BySeverity: rows}
	for _, row := range rows {
		report.TotalResolved += row.Resolved
		report.TotalMet += row.Met
	}
	if report.TotalResolved > 0 {
		report.CompliancePct = 100 * float64(report.TotalMet) / float64(report.TotalResolved)
	}
	return report, nil
}

// SummaryForDay computes the counts for one day's summary email.
func (s *Service) SummaryForDay(ctx context.Context, day time.Time) (*SummaryCounts, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	bySLA, err := s.repo.CountLiveBySLAStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by sla status: %w", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	resolvedToday, err := s.repo.CountResolvedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("count resolved today: %w", err)
	}

	return &SummaryCounts{
		Open:          byStatus[domain.IncidentStatusOpen] + byStatus[domain.IncidentStatusReopened],
		InProgress:    byStatus[domain.IncidentStatusAssigned] + byStatus[domain.IncidentStatusInvestigating],
		ResolvedToday: resolvedToday,
		Breached:      bySLA[domain.SLAStatusBreached],
	}, nil
}
