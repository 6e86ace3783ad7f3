package trust

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/events"
	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

type scriptedRecomputer struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (r *scriptedRecomputer) Recompute(_ context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) == 0 {
		return models.Zero(workerID, time.Now()), nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return nil, err
}

func changedEvent() events.Event {
	return events.New(events.TypeEvidenceChanged, id.WorkerID(uuid.New()), "test", time.Now())
}

func TestSubscriber_Handle(t *testing.T) {
	unavailable := dErrors.Wrap(errors.New("timeout"), dErrors.CodeEvidenceUnavailable, "failed to read evidence")

	t.Run("retries evidence failures until success", func(t *testing.T) {
		r := &scriptedRecomputer{errs: []error{unavailable, unavailable}}
		sub := NewSubscriber(r, WithRetry(time.Millisecond, time.Second))

		require.NoError(t, sub.Handle(context.Background(), changedEvent()))
		assert.Equal(t, 3, r.calls)
	})

	t.Run("drops unknown worker without retry", func(t *testing.T) {
		r := &scriptedRecomputer{errs: []error{dErrors.New(dErrors.CodeNotFound, "worker not found")}}
		sub := NewSubscriber(r, WithRetry(time.Millisecond, time.Second))

		require.NoError(t, sub.Handle(context.Background(), changedEvent()))
		assert.Equal(t, 1, r.calls)
	})

	t.Run("gives up on non-retryable errors", func(t *testing.T) {
		r := &scriptedRecomputer{errs: []error{dErrors.New(dErrors.CodeInternal, "boom")}}
		sub := NewSubscriber(r, WithRetry(time.Millisecond, time.Second))

		err := sub.Handle(context.Background(), changedEvent())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.Equal(t, 1, r.calls)
	})

	t.Run("returns last error once the budget is spent", func(t *testing.T) {
		errs := make([]error, 1000)
		for i := range errs {
			errs[i] = unavailable
		}
		r := &scriptedRecomputer{errs: errs}
		sub := NewSubscriber(r, WithRetry(time.Millisecond, 20*time.Millisecond))

		err := sub.Handle(context.Background(), changedEvent())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEvidenceUnavailable))
		assert.Greater(t, r.calls, 1)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		r := &scriptedRecomputer{errs: []error{unavailable, unavailable, unavailable}}
		sub := NewSubscriber(r, WithRetry(time.Hour, time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sub.Handle(ctx, changedEvent())
		require.Error(t, err)
		assert.Equal(t, 1, r.calls)
	})
}
