package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/id"
)

func TestDecode(t *testing.T) {
	orig := PaymentDeleted{
		PaymentID:   id.New(),
		OrderID:     id.New(),
		PaymentDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	ev, err := Decode(orig.EventName(), raw)
	require.NoError(t, err)
	assert.Equal(t, orig, ev)
	assert.Equal(t, orig.PaymentID, ev.AggregateID())
}

func TestDecode_UnknownName(t *testing.T) {
	_, err := Decode("invoice.archived", []byte(`{}`))
	assert.Error(t, err)
}
