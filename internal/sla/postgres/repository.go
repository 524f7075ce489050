// Package postgres provides the PostgreSQL implementation of the SLA policy
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/sla"
)

// Repository implements sla.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePolicy inserts a policy row.
func (r *Repository) CreatePolicy(ctx context.Context, policy *domain.SLAPolicy) error {
	query := `
		INSERT INTO sla_policies (severity, response_hours, resolution_hours, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		policy.Severity,
		policy.ResponseHours,
		policy.ResolutionHours,
		policy.CreatedBy,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sla policy: %w", err)
	}
	return nil
}

// GetPolicy retrieves the policy row for a severity.
func (r *Repository) GetPolicy(ctx context.Context, severity domain.Severity) (*domain.SLAPolicy, error) {
	return r.getPolicy(ctx, "severity = $1", string(severity))
}

// GetPolicyByID retrieves a policy row by id.
func (r *Repository) GetPolicyByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	return r.getPolicy(ctx, "id = $1", id)
}

func (r *Repository) getPolicy(ctx context.Context, where, arg string) (*domain.SLAPolicy, error) {
	query := `
		SELECT id, severity, response_hours, resolution_hours, created_by, created_at, updated_at
		FROM sla_policies
		WHERE ` + where

	var policy domain.SLAPolicy
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&policy.ID,
		&policy.Severity,
		&policy.ResponseHours,
		&policy.ResolutionHours,
		&policy.CreatedBy,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sla.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get sla policy: %w", err)
	}
	return &policy, nil
}

// ListPolicies retrieves all policy rows ordered by severity.
func (r *Repository) ListPolicies(ctx context.Context) ([]*domain.SLAPolicy, error) {
	query := `
		SELECT id, severity, response_hours, resolution_hours, created_by, created_at, updated_at
		FROM sla_policies
		ORDER BY severity
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sla policies: %w", err)
	}
	defer rows.Close()

	var policies []*domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		if err := rows.Scan(
			&policy.ID,
			&policy.Severity,
			&policy.ResponseHours,
			&policy.ResolutionHours,
			&policy.CreatedBy,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sla policy: %w", err)
		}
		policies = append(policies, &policy)
	}
	return policies, rows.Err()
}

// UpdatePolicy updates the budgets of a policy row.
func (r *Repository) UpdatePolicy(ctx context.Context, policy *domain.SLAPolicy) error {
	query := `
		UPDATE sla_policies
		SET response_hours = $2, resolution_hours = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		policy.ID,
		policy.ResponseHours,
		policy.ResolutionHours,
	).Scan(&policy.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sla.ErrPolicyNotFound
		}
		return fmt.Errorf("update sla policy: %w", err)
	}
	return nil
}

// DeletePolicy removes a policy row.
func (r *Repository) DeletePolicy(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sla_policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sla policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sla.ErrPolicyNotFound
	}
	return nil
}
