package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSiteInput_Validate(t *testing.T) {
	in := CreateSiteInput{Slug: "  Trendz-Main ", DisplayName: "Trendz"}
	require.NoError(t, in.Validate())
	assert.Equal(t, "trendz-main", in.Slug)

	bad := CreateSiteInput{Slug: "no spaces", DisplayName: "x"}
	assert.Error(t, bad.Validate())

	noName := CreateSiteInput{Slug: "ok"}
	assert.Error(t, noName.Validate())
}

func TestParseID(t *testing.T) {
	id, err := ParseID("0192a3f4-5b6c-7d8e-9f01-23456789abcd")
	require.NoError(t, err)
	assert.Equal(t, ID("0192a3f4-5b6c-7d8e-9f01-23456789abcd"), id)

	_, err = ParseID("site-1")
	assert.Error(t, err)
}

func TestMemoryRegistry_ListActive(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry(
		&Site{ID: "a", Slug: "a", Status: StatusActive},
		&Site{ID: "b", Slug: "b", Status: StatusActive},
	)
	require.NoError(t, reg.UpdateStatus(ctx, "b", StatusSuspended))

	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ID("a"), active[0].ID)

	_, err = reg.GetByID(ctx, "zzz")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}
