// Package sla owns deadline computation and SLA health classification.
package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Calculator errors.
var (
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrPolicyNotFound  = errors.New("sla policy not found")
)

// defaultResolutionHours is the built-in budget table used when no explicit
// policy row exists for a severity.
var defaultResolutionHours = map[domain.Severity]int{
	domain.SeverityCritical: 4,
	domain.SeverityHigh:     8,
	domain.SeverityMedium:   24,
	domain.SeverityLow:      48,
}

// defaultResponseHours mirrors the default table for the response budget.
var defaultResponseHours = map[domain.Severity]int{
	domain.SeverityCritical: 1,
	domain.SeverityHigh:     2,
	domain.SeverityMedium:   8,
	domain.SeverityLow:      24,
}

// PolicyStore provides read access to administratively managed SLA policies.
type PolicyStore interface {
	GetPolicy(ctx context.Context, severity domain.Severity) (*domain.SLAPolicy, error)
}

// Calculator computes SLA deadlines from severity and a reference time.
type Calculator struct {
	policies PolicyStore
}

// NewCalculator creates a new deadline calculator.
func NewCalculator(policies PolicyStore) *Calculator {
	return &Calculator{policies: policies}
}

// ComputeDeadline returns referenceTime plus the resolution budget for the
// severity. The budget comes from the policy store, falling back to the
// built-in default table when no policy row exists.
func (c *Calculator) ComputeDeadline(ctx context.Context, severity domain.Severity, referenceTime time.Time) (time.Time, error) {
	hours, err := c.resolutionBudget(ctx, severity)
	if err != nil {
		return time.Time{}, err
	}
	return referenceTime.Add(time.Duration(hours) * time.Hour), nil
}

func (c *Calculator) resolutionBudget(ctx context.Context, severity domain.Severity) (int, error) {
	if !severity.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, severity)
	}

	if c.policies != nil {
		policy, err := c.policies.GetPolicy(ctx, severity)
		switch {
		case err == nil:
			return policy.ResolutionHours, nil
		case errors.Is(err, ErrPolicyNotFound):
			// fall through to defaults
		default:
			return 0, fmt.Errorf("get sla policy: %w", err)
		}
	}

	return defaultResolutionHours[severity], nil
}

// DefaultResolutionHours returns the built-in resolution budget for a
// severity. Callers must pass a valid severity.
func DefaultResolutionHours(severity domain.Severity) int {
	return defaultResolutionHours[severity]
}

// DefaultResponseHours returns the built-in response budget for a severity.
func DefaultResponseHours(severity domain.Severity) int {
	return defaultResponseHours[severity]
}
