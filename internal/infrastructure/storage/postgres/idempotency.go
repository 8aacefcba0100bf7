package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/squirrel"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/tenant"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// IdempotencyRecord is one row of sys_idempotency. Response holds the body
// written for the original request; RequestHash binds the key to that body.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore manages idempotency keys, scoped per tenant.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// pendingStaleAfter is how long a pending key blocks retries before it is reclaimed.
const pendingStaleAfter = time.Minute

// AcquireKey claims key for this request. It returns (nil, nil) when the
// caller should run the operation, a replay when the key already holds a
// response, and an error when another request is processing the key.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, tn tenant.ID, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	var (
		record   IdempotencyRecord
		inserted bool
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (tenant_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (tenant_id, idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, $8)
		RETURNING idempotency_key, user_id, operation, status, request_hash, response, response_status, response_content_type, created_at, updated_at, expires_at,
		          (xmax = 0) AS inserted
	`, tn, key, userID, operation, IdempotencyStatusPending, requestHash, now, expiresAt).Scan(
		&record.Key, &record.UserID, &record.Operation, &record.Status,
		&record.RequestHash, &record.Response, &record.StatusCode, &record.ContentType,
		&record.CreatedAt, &record.UpdatedAt, &record.ExpiresAt, &inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	// xmax = 0 only for a row this statement inserted
	if inserted {
		return nil, nil
	}

	// A key may only be replayed for the request that created it.
	if record.UserID != userID || record.Operation != operation || record.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", record.Operation).
			WithDetail("request_operation", operation)
	}

	switch record.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return replayOf(record), nil
	case IdempotencyStatusPending:
		if now.Sub(record.UpdatedAt) <= pendingStaleAfter {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		// the request holding the key most likely died; take it over
		if err := s.exec(ctx, squirrel.Update("sys_idempotency").
			Set("updated_at", now).
			Where(squirrel.Eq{"tenant_id": tn, "idempotency_key": key, "status": IdempotencyStatusPending}).
			PlaceholderFormat(squirrel.Dollar)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// CompleteKey stores the successful response under key.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, tn tenant.ID, key string, statusCode int, contentType string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if response == nil {
		body = nil
	}
	return s.exec(ctx, s.finishQuery(tn, key, IdempotencyStatusSuccess, statusCode, contentType, body))
}

// FailKey records an error response under key so a retry replays it.
// Server errors release the key instead: the retry runs the operation again.
func (s *IdempotencyStore) FailKey(ctx context.Context, tn tenant.ID, key string, statusCode int, contentType string, response any) error {
	if statusCode >= http.StatusInternalServerError {
		return s.exec(ctx, s.releaseQuery(tn, key))
	}
	body, err := json.Marshal(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return s.exec(ctx, s.finishQuery(tn, key, IdempotencyStatusFailed, statusCode, contentType, body))
}

func (s *IdempotencyStore) finishQuery(tn tenant.ID, key string, status IdempotencyStatus, code int, ct string, body []byte) squirrel.Sqlizer {
	return squirrel.Update("sys_idempotency").
		SetMap(map[string]any{
			"status":                status,
			"response":              body,
			"response_status":       code,
			"response_content_type": ct,
			"updated_at":            s.now(),
		}).
		Where(squirrel.Eq{"tenant_id": tn, "idempotency_key": key}).
		PlaceholderFormat(squirrel.Dollar)
}

func (s *IdempotencyStore) releaseQuery(tn tenant.ID, key string) squirrel.Sqlizer {
	return squirrel.Delete("sys_idempotency").
		Where(squirrel.Eq{"tenant_id": tn, "idempotency_key": key, "status": IdempotencyStatusPending}).
		PlaceholderFormat(squirrel.Dollar)
}

func (s *IdempotencyStore) exec(ctx context.Context, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build idempotency query: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update idempotency key: %w", err)
	}
	return nil
}

func replayOf(r IdempotencyRecord) *IdempotencyReplay {
	out := &IdempotencyReplay{StatusCode: r.StatusCode, ContentType: r.ContentType, Body: r.Response}
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusOK
	}
	if out.ContentType == "" {
		out.ContentType = "application/json"
	}
	return out
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
