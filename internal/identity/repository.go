// Package identity provides user accounts, authentication and the roster
// consulted by the incident core.
package identity

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Repository defines the interface for user data access.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListActiveByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}
