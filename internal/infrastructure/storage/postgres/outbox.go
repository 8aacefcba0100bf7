package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/events"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/posting"
	"trendzportal/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// EventSummaryRecompute is the outbox type of a deferred summary refresh.
const EventSummaryRecompute = "summary.recompute_requested"

// MaxOutboxRetries is the number of failed attempts after which a message stops being retried.
const MaxOutboxRetries = 5

// OutboxMessage is a row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	TenantID      tenant.ID    `db:"tenant_id"`
	AggregateType string       `db:"aggregate_type"` // invoice, purchase_order, purchase_payment, summary
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DomainEvent is an event to be written to the outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, tenant_id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, tn tenant.ID, event DomainEvent) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, insertOutboxSQL,
		id.New(), tn, event.AggregateType, event.AggregateID, event.EventType, payload,
		OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// PublishBatch writes several events in one round-trip.
func (p *OutboxPublisher) PublishBatch(ctx context.Context, tn tenant.ID, evs []DomainEvent) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, event := range evs {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(insertOutboxSQL,
			id.New(), tn, event.AggregateType, event.AggregateID, event.EventType, payload,
			OutboxStatusPending, now)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range evs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert outbox message: %w", err)
		}
	}
	return nil
}

// aggregateType derives "invoice" from "invoice.paid".
func aggregateType(eventName string) string {
	if i := strings.IndexByte(eventName, '.'); i > 0 {
		return eventName[:i]
	}
	return eventName
}

// OutboxEventLog records handled ledger events so other processes can follow them.
type OutboxEventLog struct {
	pub *OutboxPublisher
}

var _ posting.EventLog = (*OutboxEventLog)(nil)

// NewOutboxEventLog returns an EventLog backed by the outbox.
func NewOutboxEventLog(pub *OutboxPublisher) *OutboxEventLog {
	return &OutboxEventLog{pub: pub}
}

// Append implements posting.EventLog.
func (l *OutboxEventLog) Append(ctx context.Context, tn tenant.ID, ev events.Event) error {
	return l.pub.Publish(ctx, tn, DomainEvent{
		AggregateType: aggregateType(ev.EventName()),
		AggregateID:   ev.AggregateID(),
		EventType:     ev.EventName(),
		Payload:       ev,
	})
}

// OutboxSummaryQueue defers summary recomputation to the worker.
type OutboxSummaryQueue struct {
	pub *OutboxPublisher
}

var _ posting.SummaryQueue = (*OutboxSummaryQueue)(nil)

// NewOutboxSummaryQueue returns a SummaryQueue backed by the outbox.
func NewOutboxSummaryQueue(pub *OutboxPublisher) *OutboxSummaryQueue {
	return &OutboxSummaryQueue{pub: pub}
}

// Enqueue implements posting.SummaryQueue.
func (q *OutboxSummaryQueue) Enqueue(ctx context.Context, tn tenant.ID, p finance.Period) error {
	return q.pub.Publish(ctx, tn, DomainEvent{
		AggregateType: "summary",
		AggregateID:   id.Nil(),
		EventType:     EventSummaryRecompute,
		Payload:       p,
	})
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error { return f(ctx, msg) }

// OutboxRelay reads pending messages and hands them to a handler.
// Messages are locked with FOR UPDATE SKIP LOCKED for the duration of the
// batch transaction, so several relays can run side by side.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{txManager: txManager, batchSize: batchSize, handler: handler}
}

// ProcessBatch handles one batch of pending messages and returns how many succeeded.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)
		rows, err := q.Query(ctx, `
			SELECT id, tenant_id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}
		messages, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[OutboxMessage])
		if err != nil {
			return fmt.Errorf("scan outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox message failed",
					"message_id", msg.ID, "event_type", msg.EventType,
					"tenant_id", msg.TenantID, "retry", msg.RetryCount, "error", err)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

// processMessage runs the handler under a savepoint so a failing message
// leaves the rest of the batch intact.
func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	q := r.txManager.GetQuerier(ctx)
	opts := DefaultTxOptions()
	opts.UseSavepoint = true

	err := r.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		return r.handler.Handle(ctx, msg)
	})
	if err != nil {
		nextRetry := time.Now().UTC().Add(RetryBackoff(msg.RetryCount))
		if _, updErr := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, err.Error(), nextRetry, MaxOutboxRetries, OutboxStatusFailed, msg.ID); updErr != nil {
			return fmt.Errorf("update failed message: %w", updErr)
		}
		return err
	}

	_, err = q.Exec(ctx, `UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
		OutboxStatusPublished, time.Now().UTC(), msg.ID)
	return err
}

// RetryBackoff is the delay before attempt n+1: one minute doubled per
// failed attempt, capped at an hour.
func RetryBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 6 {
		return time.Hour
	}
	return min(time.Duration(1<<attempts)*time.Minute, time.Hour)
}

// MoveToDLQ moves exhausted messages to the dead letter table.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1 AND retry_count >= $2
			RETURNING id, tenant_id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, tenant_id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at)
		SELECT id, tenant_id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at FROM moved
	`, OutboxStatusFailed, MaxOutboxRetries)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than before.
func (r *OutboxRelay) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`, OutboxStatusPublished, before)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return result.RowsAffected(), nil
}
