package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"crafted/internal/events"
)

// Consumer feeds records from a consumer group into an events.Handler.
type Consumer struct {
	client  *kgo.Client
	handler events.Handler
	logger  *slog.Logger
}

func NewConsumer(client *kgo.Client, handler events.Handler, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, handler: handler, logger: logger}
}

// Run polls until ctx is cancelled or the client is closed. Offsets are
// committed after each fetch has been handled. A record whose handler fails
// is logged and committed: the trust subscriber already retried it, and a
// later event for the same worker triggers a fresh recompute anyway.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return nil
			}
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}
		fetches.EachRecord(func(record *kgo.Record) {
			c.handle(ctx, record)
		})
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "kafka offset commit failed", "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, record *kgo.Record) {
	var event events.Event
	if err := json.Unmarshal(record.Value, &event); err != nil {
		c.logger.WarnContext(ctx, "skipping undecodable event",
			"topic", record.Topic,
			"partition", record.Partition,
			"offset", record.Offset,
			"error", err,
		)
		return
	}
	if err := c.handler(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "event handler failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"worker_id", event.WorkerID,
			"offset", record.Offset,
			"error", err,
		)
	}
}
