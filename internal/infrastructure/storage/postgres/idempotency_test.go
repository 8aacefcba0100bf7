package postgres

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayOfDefaults(t *testing.T) {
	r := replayOf(IdempotencyRecord{Response: []byte(`{"id":"x"}`)})
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/json", r.ContentType)
	assert.JSONEq(t, `{"id":"x"}`, string(r.Body))

	r = replayOf(IdempotencyRecord{StatusCode: http.StatusConflict, ContentType: "application/problem+json"})
	assert.Equal(t, http.StatusConflict, r.StatusCode)
	assert.Equal(t, "application/problem+json", r.ContentType)
}

func TestFinishQueryTargetsOneKey(t *testing.T) {
	s := NewIdempotencyStore(nil, time.Hour)
	sql, args, err := s.finishQuery("site-a", "k1", IdempotencyStatusSuccess, 201, "application/json", []byte("{}")).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE sys_idempotency SET")
	assert.Contains(t, sql, "idempotency_key = $")
	assert.Contains(t, sql, "tenant_id = $")
	assert.Contains(t, args, IdempotencyStatusSuccess)
	assert.Contains(t, args, 201)
}

func TestReleaseQueryOnlyDropsPendingKeys(t *testing.T) {
	s := NewIdempotencyStore(nil, 0)
	assert.Equal(t, 24*time.Hour, s.ttl)

	sql, args, err := s.releaseQuery("site-a", "k1").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "DELETE FROM sys_idempotency")
	assert.Contains(t, sql, "status = $")
	assert.Contains(t, args, IdempotencyStatusPending)
}
