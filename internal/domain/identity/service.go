package identity

import (
	"context"
	"strings"
	"sync"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/pkg/logger"
)

const passwordMinLength = 8

// SystemUserProvider supplies the user that auto-generated rows are attributed to.
type SystemUserProvider interface {
	SystemUser(ctx context.Context, tn tenant.ID) (*User, error)
}

// Service manages users and issues tokens.
type Service struct {
	users UserRepository
	jwt   *JWTService
	txm   tx.Manager
	clock clock.Clock

	// system user ids already confirmed in storage, by tenant
	systemIDs sync.Map
}

// NewService creates the identity service.
func NewService(users UserRepository, jwt *JWTService, txm tx.Manager, c clock.Clock) *Service {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Service{users: users, jwt: jwt, txm: txm, clock: c}
}

// CreateUserInput is the payload for CreateUser.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Roles    []security.Role
}

// CreateUser registers an account. An admin role sets IsAdmin.
func (s *Service) CreateUser(ctx context.Context, tn tenant.ID, in CreateUserInput) (*User, error) {
	if len(in.Password) < passwordMinLength {
		return nil, apperror.NewValidation("password is too short").WithDetail("field", "password")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := s.clock.Now()
	u := &User{
		ID:           id.New(),
		TenantID:     tn,
		Username:     strings.ToLower(strings.TrimSpace(in.Username)),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, r := range in.Roles {
		u.Roles = append(u.Roles, string(r))
		if r == security.RoleAdmin {
			u.IsAdmin = true
		}
	}
	if u.Username == SystemUsername {
		return nil, apperror.NewValidation("username is reserved").WithDetail("field", "username")
	}
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, tn, u)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "user created", "tenant_id", tn, "username", u.Username)
	return u, nil
}

// IssueToken checks credentials and returns a signed access token.
func (s *Service) IssueToken(ctx context.Context, tn tenant.ID, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, tn, strings.ToLower(username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewUnauthorized("invalid credentials")
		}
		return "", err
	}
	if err := u.CanLogin(); err != nil {
		return "", err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", apperror.NewUnauthorized("invalid credentials")
	}
	return s.TokenFor(u)
}

// TokenFor signs a token for an already authenticated user.
func (s *Service) TokenFor(u *User) (string, error) {
	roles := make([]security.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, security.Role(r))
	}
	token, _, err := s.jwt.GenerateAccessToken(u, security.PermissionsFor(roles...))
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return token, nil
}

// SystemUser returns the tenant's system user, creating it on first use with a
// random password and login disabled.
func (s *Service) SystemUser(ctx context.Context, tn tenant.ID) (*User, error) {
	if v, ok := s.systemIDs.Load(tn); ok {
		return v.(*User), nil
	}

	u, err := s.users.GetByUsername(ctx, tn, SystemUsername)
	if err == nil {
		s.systemIDs.Store(tn, u)
		return u, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	secret, err := randomSecret(32)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	hash, err := HashPassword(secret)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	now := s.clock.Now()
	candidate := &User{
		ID:           id.New(),
		TenantID:     tn,
		Username:     SystemUsername,
		PasswordHash: hash,
		IsActive:     false,
		IsSystem:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var out *User
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.users.EnsureUser(ctx, tn, candidate)
		return err
	})
	if err != nil {
		return nil, err
	}
	// not cached here: the enclosing transaction may still roll the insert back
	logger.Info(ctx, "system user provisioned", "tenant_id", tn)
	return out, nil
}

// Users lists the tenant's accounts.
func (s *Service) Users(ctx context.Context, tn tenant.ID) ([]User, error) {
	return s.users.List(ctx, tn)
}

var _ SystemUserProvider = (*Service)(nil)
