package trust

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"crafted/internal/events"
	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

// Recomputer is the part of Service the subscriber drives.
type Recomputer interface {
	Recompute(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error)
}

// Subscriber turns change events into recomputes. Retryable failures are
// retried with exponential backoff inside the retry budget; a worker that no
// longer exists is logged and dropped.
type Subscriber struct {
	recomputer  Recomputer
	logger      *slog.Logger
	initialWait time.Duration
	maxElapsed  time.Duration
}

type SubscriberOption func(*Subscriber)

func WithSubscriberLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) { s.logger = logger }
}

// WithRetry sets the first backoff interval and the total retry budget.
func WithRetry(initialWait, maxElapsed time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if initialWait > 0 {
			s.initialWait = initialWait
		}
		if maxElapsed > 0 {
			s.maxElapsed = maxElapsed
		}
	}
}

func NewSubscriber(recomputer Recomputer, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		recomputer:  recomputer,
		logger:      slog.Default(),
		initialWait: 100 * time.Millisecond,
		maxElapsed:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle satisfies events.Handler.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialWait
	policy.MaxElapsedTime = s.maxElapsed

	attempt := 0
	op := func() error {
		attempt++
		_, err := s.recomputer.Recompute(ctx, event.WorkerID)
		if err == nil || dErrors.Retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		s.logger.WarnContext(ctx, "trust score recompute failed, retrying",
			"worker_id", event.WorkerID,
			"event_type", event.Type,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.logger.InfoContext(ctx, "dropping recompute for unknown worker",
			"worker_id", event.WorkerID,
			"event_type", event.Type,
			"event_id", event.ID,
		)
		return nil
	}
	s.logger.ErrorContext(ctx, "trust score recompute abandoned",
		"worker_id", event.WorkerID,
		"event_type", event.Type,
		"event_id", event.ID,
		"attempts", attempt,
		"error", err,
	)
	return err
}
