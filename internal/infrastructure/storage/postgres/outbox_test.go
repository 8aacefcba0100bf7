package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, RetryBackoff(0))
	assert.Equal(t, 2*time.Minute, RetryBackoff(1))
	assert.Equal(t, 16*time.Minute, RetryBackoff(4))
	assert.Equal(t, time.Hour, RetryBackoff(6))
	assert.Equal(t, time.Hour, RetryBackoff(40))
	assert.Equal(t, time.Minute, RetryBackoff(-3))
}

func TestAggregateType(t *testing.T) {
	assert.Equal(t, "invoice", aggregateType("invoice.paid"))
	assert.Equal(t, "purchase_order", aggregateType("purchase_order.received"))
}
