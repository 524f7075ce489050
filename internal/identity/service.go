package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Authenticator issues access tokens for authenticated users.
type Authenticator interface {
	GenerateToken(ctx context.Context, user *domain.User) (string, error)
}

// Service implements identity business logic.
type Service struct {
	repo Repository
	auth Authenticator
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{repo: repo, auth: auth}
}

// RegisterInput contains data for self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a reporter account. Responder and admin accounts are
// created by an admin through CreateUser.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, input.Name, input.Email, input.Password, domain.RoleReporter)
}

// CreateUserInput contains data for admin-driven account creation.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// CreateUser creates an account with an explicit role.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if !input.Role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
	}
	return s.createUser(ctx, input.Name, input.Email, input.Password, input.Role)
}

func (s *Service) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the user with an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.Active {
		return nil, "", ErrUserInactive
	}

	token, err := s.auth.GenerateToken(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// GetUser returns a user by ID. Implements the roster lookup used by the
// incident core and the notification dispatcher.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListActiveAdmins returns all active admin accounts.
func (s *Service) ListActiveAdmins(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListActiveByRole(ctx, domain.RoleAdmin)
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// SetActive activates or deactivates an account. Deactivated users cannot
// log in and stop receiving email.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
