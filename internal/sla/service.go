package sla

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Policy administration errors.
var (
	ErrPolicyExists   = errors.New("sla policy already exists for severity")
	ErrBudgetInverted = errors.New("resolution budget must exceed response budget")
)

// Service implements SLA policy administration.
type Service struct {
	repo Repository
}

// NewService creates a new SLA policy service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetPolicy implements PolicyStore on top of the repository, so the service
// doubles as the calculator's policy source.
func (s *Service) GetPolicy(ctx context.Context, severity domain.Severity) (*domain.SLAPolicy, error) {
	return s.repo.GetPolicy(ctx, severity)
}

// CreatePolicyInput holds data for creating a policy row.
type CreatePolicyInput struct {
	Severity        domain.Severity
	ResponseHours   int
	ResolutionHours int
}

// CreatePolicy creates a policy row for a severity. At most one row may
// exist per severity.
func (s *Service) CreatePolicy(ctx context.Context, input CreatePolicyInput, createdBy string) (*domain.SLAPolicy, error) {
	if !input.Severity.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, input.Severity)
	}
	if input.ResolutionHours <= input.ResponseHours {
		return nil, ErrBudgetInverted
	}

	if _, err := s.repo.GetPolicy(ctx, input.Severity); err == nil {
		return nil, ErrPolicyExists
	} else if !errors.Is(err, ErrPolicyNotFound) {
		return nil, fmt.Errorf("check existing policy: %w", err)
	}

	policy := &domain.SLAPolicy{
		Severity:        input.Severity,
		ResponseHours:   input.ResponseHours,
		ResolutionHours: input.ResolutionHours,
		CreatedBy:       createdBy,
	}
	if err := s.repo.CreatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return policy, nil
}

// UpdatePolicyInput holds data for updating a policy row. Nil fields are
// left unchanged.
type UpdatePolicyInput struct {
	ResponseHours   *int
	ResolutionHours *int
}

// UpdatePolicy updates the budgets of an existing policy row.
func (s *Service) UpdatePolicy(ctx context.Context, id string, input UpdatePolicyInput) (*domain.SLAPolicy, error) {
	policy, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ResponseHours != nil {
		policy.ResponseHours = *input.ResponseHours
	}
	if input.ResolutionHours != nil {
		policy.ResolutionHours = *input.ResolutionHours
	}
	if policy.ResolutionHours <= policy.ResponseHours {
		return nil, ErrBudgetInverted
	}

	if err := s.repo.UpdatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return policy, nil
}

// ListPolicies returns all policy rows.
func (s *Service) ListPolicies(ctx context.Context) ([]*domain.SLAPolicy, error) {
	return s.repo.ListPolicies(ctx)
}

// GetPolicyByID returns a single policy row.
func (s *Service) GetPolicyByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	return s.repo.GetPolicyByID(ctx, id)
}

// DeletePolicy removes a policy row; deadline computation for that severity
// falls back to the built-in default table.
func (s *Service) DeletePolicy(ctx context.Context, id string) error {
	if _, err := s.repo.GetPolicyByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeletePolicy(ctx, id)
}
