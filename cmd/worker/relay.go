package main

import (
	"context"
	"encoding/json"
	"fmt"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/events"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/posting"
	"trendzportal/internal/infrastructure/storage/postgres"
	"trendzportal/pkg/logger"
)

// replayer re-derives the rows of a ledger event; see posting.Engine.Replay.
type replayer interface {
	Replay(ctx context.Context, tn tenant.ID, ev events.Event) error
}

// outboxHandler routes relayed outbox messages. Summary requests become
// asynq tasks. Ledger events are replayed through the posting engine, which
// fills in anything a failed posting left underived and is a no-op otherwise.
func outboxHandler(queue posting.SummaryQueue, engine replayer) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		if msg.EventType == postgres.EventSummaryRecompute {
			var p finance.Period
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return fmt.Errorf("decode period: %w", err)
			}
			return queue.Enqueue(ctx, msg.TenantID, p)
		}

		ev, err := events.Decode(msg.EventType, msg.Payload)
		if err != nil {
			// retried until it lands in the dead letter table
			logger.Warn(ctx, "outbox message not decodable", "event", msg.EventType, "id", msg.ID, "error", err)
			return err
		}
		if err := engine.Replay(ctx, msg.TenantID, ev); err != nil {
			return fmt.Errorf("replay %s %s: %w", msg.EventType, msg.AggregateID, err)
		}
		return nil
	})
}
