package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/id"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	u := &User{
		ID:       id.New(),
		TenantID: "site-1",
		Username: "cashier1",
		Roles:    []string{"cashier"},
	}

	token, exp, err := svc.GenerateAccessToken(u, []string{"sales:write"})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), uc.UserID)
	assert.Equal(t, "site-1", uc.TenantID)
	assert.Equal(t, "cashier1", uc.Username)
	assert.Equal(t, []string{"sales:write"}, uc.Permissions)
	assert.False(t, uc.IsAdmin)
}

func TestJWTService_RejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	other := NewJWTService(DefaultJWTConfig("secret-b"))
	u := &User{ID: id.New(), TenantID: "site-1", Username: "viewer"}

	token, _, err := issuer.GenerateAccessToken(u, nil)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err, "token expired after 15 minutes")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestUserCanLogin(t *testing.T) {
	assert.Error(t, (&User{IsSystem: true, IsActive: true}).CanLogin())
	assert.Error(t, (&User{IsActive: false}).CanLogin())
	assert.NoError(t, (&User{IsActive: true}).CanLogin())
}
