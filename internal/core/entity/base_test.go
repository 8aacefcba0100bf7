package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trendzportal/internal/core/id"
)

func TestBaseStamp(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	var b Base
	b.Stamp("site-a", now)

	assert.False(t, id.IsNil(b.ID))
	assert.Equal(t, 1, b.Version)
	assert.Equal(t, "site-a", b.TenantID.String())
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, now, b.UpdatedAt)

	keep := b.ID
	b.Stamp("site-a", now.Add(time.Hour))
	assert.Equal(t, keep, b.ID, "existing id is preserved")

	b.Touch(now.Add(2 * time.Hour))
	assert.Equal(t, now.Add(2*time.Hour), b.UpdatedAt)
}
