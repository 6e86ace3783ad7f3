// Package scheduler runs the time-triggered jobs of the service. Today that
// is the identity document expiry sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper expires every verified identity document whose expiry has passed
// and reports how many it moved.
type Sweeper interface {
	ExpireDueDocuments(ctx context.Context, now time.Time) (int, error)
}

type ExpirySweep struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	ctx     context.Context
}

type Option func(*ExpirySweep)

func WithClock(now func() time.Time) Option {
	return func(s *ExpirySweep) { s.now = now }
}

// NewExpirySweep schedules the sweep on a standard five-field cron spec or a
// descriptor such as "@hourly". Overlapping runs are skipped.
func NewExpirySweep(sweeper Sweeper, spec string, logger *slog.Logger, opts ...Option) (*ExpirySweep, error) {
	s := &ExpirySweep{
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("schedule expiry sweep %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing the sweep. Sweeps run with ctx until Stop.
func (s *ExpirySweep) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("expiry sweep already running")
	}
	s.running = true
	s.ctx = ctx
	s.cron.Start()
	s.logger.InfoContext(ctx, "expiry sweep scheduled", "next_run", s.next())
	return nil
}

// Stop prevents further sweeps and waits for a running one to finish.
func (s *ExpirySweep) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// RunOnce sweeps immediately, independent of the schedule.
func (s *ExpirySweep) RunOnce(ctx context.Context) (int, error) {
	start := s.now().UTC()
	expired, err := s.sweeper.ExpireDueDocuments(ctx, start)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed",
			"expired", expired,
			"error", err,
		)
		return expired, err
	}
	s.logger.InfoContext(ctx, "expiry sweep completed",
		"expired", expired,
		"duration", s.now().Sub(start),
	)
	return expired, nil
}

func (s *ExpirySweep) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	_, _ = s.RunOnce(ctx)
}

func (s *ExpirySweep) next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
