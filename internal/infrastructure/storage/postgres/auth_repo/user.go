// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/infrastructure/storage/postgres"
)

const userColumns = `id, tenant_id, username, email, password_hash, roles,
	is_active, is_system, is_admin, created_at, updated_at`

// UserRepo implements identity.UserRepository.
type UserRepo struct {
	txm *postgres.TxManager
}

var _ identity.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, tn tenant.ID, u *identity.User) error {
	u.TenantID = tn
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, insertUserSQL, userArgs(tn, u)...)
	if err != nil {
		return postgres.MapError(err, "user", "insert")
	}
	return nil
}

const insertUserSQL = `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func userArgs(tn tenant.ID, u *identity.User) []any {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return []any{
		u.ID, string(tn), u.Username, u.Email, u.PasswordHash, roles,
		u.IsActive, u.IsSystem, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	}
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, tn tenant.ID, userID id.ID) (*identity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`,
		userID, string(tn), userID)
}

// GetByUsername retrieves user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, tn tenant.ID, username string) (*identity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND username = $2`,
		username, string(tn), username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, key any, args ...any) (*identity.User, error) {
	var u identity.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &u, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// EnsureUser inserts u unless the username is taken and returns the stored row.
// Concurrent callers converge on the same row.
func (r *UserRepo) EnsureUser(ctx context.Context, tn tenant.ID, u *identity.User) (*identity.User, error) {
	u.TenantID = tn
	_, err := r.txm.GetQuerier(ctx).Exec(ctx,
		insertUserSQL+` ON CONFLICT ON CONSTRAINT uq_users_username DO NOTHING`,
		userArgs(tn, u)...)
	if err != nil {
		return nil, postgres.MapError(err, "user", "ensure")
	}
	return r.GetByUsername(ctx, tn, u.Username)
}

// List returns the tenant's users ordered by username.
func (r *UserRepo) List(ctx context.Context, tn tenant.ID) ([]identity.User, error) {
	var users []identity.User
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY username`, string(tn))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
