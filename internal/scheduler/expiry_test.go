package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *countingSweeper) ExpireDueDocuments(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, now)
	return 2, s.err
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewExpirySweep_RejectsInvalidSpec(t *testing.T) {
	_, err := NewExpirySweep(&countingSweeper{}, "every now and then", discard())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)

	t.Run("passes the clock time to the sweeper", func(t *testing.T) {
		sweeper := &countingSweeper{}
		sweep, err := NewExpirySweep(sweeper, "@hourly", discard(), WithClock(func() time.Time { return fixed }))
		require.NoError(t, err)

		n, err := sweep.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, sweeper.calls, 1)
		assert.Equal(t, fixed, sweeper.calls[0])
	})

	t.Run("returns sweeper errors", func(t *testing.T) {
		sweeper := &countingSweeper{err: errors.New("store down")}
		sweep, err := NewExpirySweep(sweeper, "@hourly", discard())
		require.NoError(t, err)

		_, err = sweep.RunOnce(context.Background())
		assert.Error(t, err)
	})
}

func TestStartStop(t *testing.T) {
	sweeper := &countingSweeper{}
	sweep, err := NewExpirySweep(sweeper, "@every 1s", discard())
	require.NoError(t, err)

	require.NoError(t, sweep.Start(context.Background()))
	assert.Error(t, sweep.Start(context.Background()))

	assert.Eventually(t, func() bool { return sweeper.count() > 0 }, 3*time.Second, 50*time.Millisecond)
	sweep.Stop()
	sweep.Stop()

	stopped := sweeper.count()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, stopped, sweeper.count())
}
