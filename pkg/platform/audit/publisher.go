package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	id "crafted/pkg/domain"
)

// Publisher writes audit events synchronously. A failed write fails the
// calling operation: a reviewer decision without its audit row is not allowed.
type Publisher struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil || p.store == nil {
		return nil
	}
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	event.Category = AuditEvent(event.Action).Category()
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to persist audit event",
				"action", event.Action,
				"worker_id", event.WorkerID,
				"error", err,
			)
		}
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (p *Publisher) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]Event, error) {
	return p.store.ListByWorker(ctx, workerID)
}
