package auth_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/identity"
)

func TestUserArgsMatchColumns(t *testing.T) {
	tn := tenant.ID("2c8e2f1a-6b7d-4c0e-9a3f-1f2e3d4c5b6a")
	u := &identity.User{ID: id.New(), TenantID: "stale", Username: identity.SystemUsername, IsSystem: true}

	args := userArgs(tn, u)
	require.Len(t, args, len(strings.Split(userColumns, ",")))
	assert.Equal(t, string(tn), args[1])
	assert.Equal(t, []string{}, args[5])
	assert.Equal(t, true, args[7])
}
