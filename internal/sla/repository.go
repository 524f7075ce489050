package sla

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Repository defines the interface for SLA policy storage.
type Repository interface {
	CreatePolicy(ctx context.Context, policy *domain.SLAPolicy) error
	GetPolicy(ctx context.Context, severity domain.Severity) (*domain.SLAPolicy, error)
	GetPolicyByID(ctx context.Context, id string) (*domain.SLAPolicy, error)
	ListPolicies(ctx context.Context) ([]*domain.SLAPolicy, error)
	UpdatePolicy(ctx context.Context, policy *domain.SLAPolicy) error
	DeletePolicy(ctx context.Context, id string) error
}
