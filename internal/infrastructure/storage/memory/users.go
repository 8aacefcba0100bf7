package memory

import (
	"context"
	"slices"
	"strings"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/identity"
)

// UserRepo implements identity.UserRepository.
type UserRepo struct{ s *Store }

var _ identity.UserRepository = (*UserRepo)(nil)

func cloneUser(u identity.User) *identity.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}

func (r *UserRepo) byUsername(tn tenant.ID, username string) (*identity.User, bool) {
	for k, u := range r.s.st.users {
		if k.tn == tn && u.Username == username {
			return cloneUser(u), true
		}
	}
	return nil, false
}

func (r *UserRepo) Create(ctx context.Context, tn tenant.ID, u *identity.User) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.byUsername(tn, u.Username); ok {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
		u.TenantID = tn
		r.s.st.users[key{tn, u.ID}] = *cloneUser(*u)
		return nil
	})
}

func (r *UserRepo) GetByID(ctx context.Context, tn tenant.ID, userID id.ID) (*identity.User, error) {
	var out *identity.User
	err := r.s.do(ctx, func() error {
		u, ok := r.s.st.users[key{tn, userID}]
		if !ok {
			return apperror.NewNotFound("user", userID)
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByUsername(ctx context.Context, tn tenant.ID, username string) (*identity.User, error) {
	var out *identity.User
	err := r.s.do(ctx, func() error {
		u, ok := r.byUsername(tn, username)
		if !ok {
			return apperror.NewNotFound("user", username)
		}
		out = u
		return nil
	})
	return out, err
}

func (r *UserRepo) EnsureUser(ctx context.Context, tn tenant.ID, u *identity.User) (*identity.User, error) {
	var out *identity.User
	err := r.s.do(ctx, func() error {
		if existing, ok := r.byUsername(tn, u.Username); ok {
			out = existing
			return nil
		}
		u.TenantID = tn
		r.s.st.users[key{tn, u.ID}] = *cloneUser(*u)
		out = cloneUser(*u)
		return nil
	})
	return out, err
}

func (r *UserRepo) List(ctx context.Context, tn tenant.ID) ([]identity.User, error) {
	var rows []identity.User
	err := r.s.do(ctx, func() error {
		for k, u := range r.s.st.users {
			if k.tn == tn && !u.IsSystem {
				rows = append(rows, *cloneUser(u))
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b identity.User) int { return strings.Compare(a.Username, b.Username) })
	return rows, err
}
