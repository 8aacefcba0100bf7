package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToday_UsesClockLocation(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	// 22:30 UTC on the 31st is already the 1st in UTC+3.
	c := NewFixed(time.Date(2026, 1, 31, 22, 30, 0, 0, time.UTC).In(riyadh))

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestFixed_Advance(t *testing.T) {
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	c.Advance(36 * time.Hour)

	assert.Equal(t, start.Add(36*time.Hour), c.Now())
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), Today(c))
}
