package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPolicyStore implements PolicyStore for testing.
type mockPolicyStore struct {
	policies map[domain.Severity]*domain.SLAPolicy
	err      error
}

func (m *mockPolicyStore) GetPolicy(_ context.Context, severity domain.Severity) (*domain.SLAPolicy, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.policies[severity]; ok {
		return p, nil
	}
	return nil, ErrPolicyNotFound
}

func TestComputeDeadline_DefaultTable(t *testing.T) {
	ref := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(&mockPolicyStore{})

	tests := []struct {
		severity domain.Severity
		hours    int
	}{
		{domain.SeverityCritical, 4},
		{domain.SeverityHigh, 8},
		{domain.SeverityMedium, 24},
		{domain.SeverityLow, 48},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			deadline, err := calc.ComputeDeadline(context.Background(), tt.severity, ref)
			require.NoError(t, err)

			assert.True(t, deadline.After(ref))
			assert.Equal(t, time.Duration(tt.hours)*time.Hour, deadline.Sub(ref))
		})
	}
}

func TestComputeDeadline_UsesConfiguredPolicy(t *testing.T) {
	ref := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &mockPolicyStore{policies: map[domain.Severity]*domain.SLAPolicy{
		domain.SeverityHigh: {Severity: domain.SeverityHigh, ResponseHours: 2, ResolutionHours: 6},
	}}
	calc := NewCalculator(store)

	deadline, err := calc.ComputeDeadline(context.Background(), domain.SeverityHigh, ref)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, deadline.Sub(ref))

	// Severity without a policy row falls back to the default table.
	deadline, err = calc.ComputeDeadline(context.Background(), domain.SeverityLow, ref)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, deadline.Sub(ref))
}

func TestComputeDeadline_InvalidSeverity(t *testing.T) {
	calc := NewCalculator(&mockPolicyStore{})

	_, err := calc.ComputeDeadline(context.Background(), domain.Severity("URGENT"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestComputeDeadline_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	calc := NewCalculator(&mockPolicyStore{err: storeErr})

	_, err := calc.ComputeDeadline(context.Background(), domain.SeverityCritical, time.Now())
	assert.ErrorIs(t, err, storeErr)
}
