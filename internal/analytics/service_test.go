package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	byStatus      map[domain.IncidentStatus]int
	bySeverity    map[domain.Severity]int
	bySLA         map[domain.SLAStatus]int
	resolvedCount int
	resolvedFrom  time.Time
	resolvedTo    time.Time
	avg           float64
	avgOK         bool
	compliance    []ComplianceRow
}

func (m *mockRepository) CountByStatus(_ context.Context) (map[domain.IncidentStatus]int, error) {
	return m.byStatus, nil
}

func (m *mockRepository) CountLiveBySeverity(_ context.Context) (map[domain.Severity]int, error) {
	return m.bySeverity, nil
}

func (m *mockRepository) CountLiveBySLAStatus(_ context.Context) (map[domain.SLAStatus]int, error) {
	return m.bySLA, nil
}

func (m *mockRepository) CountResolvedBetween(_ context.Context, from, to time.Time) (int, error) {
	m.resolvedFrom = from
	m.resolvedTo = to
	return m.resolvedCount, nil
}

func (m *mockRepository) AvgResolutionHours(_ context.Context, _ time.Time) (float64, bool, error) {
	return m.avg, m.avgOK, nil
}

func (m *mockRepository) ComplianceBySeverity(_ context.Context, _, _ time.Time) ([]ComplianceRow, error) {
	return m.compliance, nil
}

func TestDashboard(t *testing.T) {
	repo := &mockRepository{
		byStatus: map[domain.IncidentStatus]int{
			domain.IncidentStatusOpen:          3,
			domain.IncidentStatusAssigned:      2,
			domain.IncidentStatusInvestigating: 4,
			domain.IncidentStatusClosed:        10,
		},
		bySeverity: map[domain.Severity]int{domain.SeverityCritical: 1},
		bySLA: map[domain.SLAStatus]int{
			domain.SLAStatusApproaching: 2,
			domain.SLAStatusBreached:    1,
		},
		resolvedCount: 5,
		avg:           6.5,
		avgOK:         true,
	}
	svc := NewService(repo)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 2, stats.Assigned)
	assert.Equal(t, 4, stats.Investigating)
	assert.Equal(t, 5, stats.ResolvedToday)
	assert.Equal(t, 2, stats.ApproachingBreach)
	assert.Equal(t, 1, stats.Breached)
	require.NotNil(t, stats.AvgResolutionHours)
	assert.InDelta(t, 6.5, *stats.AvgResolutionHours, 0.001)

	// "Today" starts at local midnight.
	assert.Equal(t, 0, repo.resolvedFrom.Hour())
	assert.Equal(t, 0, repo.resolvedFrom.Minute())
}

func TestDashboard_NoResolutionsYet(t *testing.T) {
	repo := &mockRepository{avgOK: false}
	svc := NewService(repo)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.AvgResolutionHours)
}

func TestCompliance(t *testing.T) {
	repo := &mockRepository{
		compliance: []ComplianceRow{
			{Severity: domain.SeverityCritical, Resolved: 4, Met: 3},
			{Severity: domain.SeverityLow, Resolved: 6, Met: 6},
		},
	}
	svc := NewService(repo)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Compliance(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalResolved)
	assert.Equal(t, 9, report.TotalMet)
	assert.InDelta(t, 90.0, report.CompliancePct, 0.001)
}

func TestCompliance_EmptyRangeIsZeroNotNaN(t *testing.T) {
	svc := NewService(&mockRepository{})

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Compliance(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, report.CompliancePct)
}

func TestCompliance_InvertedRange(t *testing.T) {
	svc := NewService(&mockRepository{})

	now := time.Now()
	_, err := svc.Compliance(context.Background(), now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSummaryForDay(t *testing.T) {
	repo := &mockRepository{
		byStatus: map[domain.IncidentStatus]int{
			domain.IncidentStatusOpen:          2,
			domain.IncidentStatusReopened:      1,
			domain.IncidentStatusAssigned:      3,
			domain.IncidentStatusInvestigating: 1,
		},
		bySLA:         map[domain.SLAStatus]int{domain.SLAStatusBreached: 2},
		resolvedCount: 4,
	}
	svc := NewService(repo)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	counts, err := svc.SummaryForDay(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, 3, counts.Open)
	assert.Equal(t, 4, counts.InProgress)
	assert.Equal(t, 4, counts.ResolvedToday)
	assert.Equal(t, 2, counts.Breached)

	// Window covers the whole calendar day.
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), repo.resolvedFrom)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.resolvedTo)
}
