// Package identity owns portal users, the reserved system user that posted
// rows are attributed to, and access token handling.
package identity

import (
	"context"
	"regexp"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
)

// SystemUsername names the reserved user behind auto-generated postings.
const SystemUsername = "system_finance"

var usernameRe = regexp.MustCompile(`^[a-z0-9_.-]{3,64}$`)

// User is a portal account.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	TenantID     tenant.ID `db:"tenant_id" json:"-"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Roles        []string  `db:"roles" json:"roles"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	IsSystem     bool      `db:"is_system" json:"isSystem"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	if !usernameRe.MatchString(u.Username) {
		return apperror.NewValidation("username must be 3-64 lowercase letters, digits or _.-").
			WithDetail("field", "username")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").WithDetail("field", "password")
	}
	return nil
}

// CanLogin checks if user can log in. The system user never can.
func (u *User) CanLogin() error {
	if u.IsSystem {
		return apperror.NewForbidden("system accounts cannot log in")
	}
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, tn tenant.ID, u *User) error
	GetByID(ctx context.Context, tn tenant.ID, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, tn tenant.ID, username string) (*User, error)

	// EnsureUser inserts u unless its username already exists, then returns the stored row.
	EnsureUser(ctx context.Context, tn tenant.ID, u *User) (*User, error)

	List(ctx context.Context, tn tenant.ID) ([]User, error)
}
