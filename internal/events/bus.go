package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	id "crafted/pkg/domain"
)

// ErrBusClosed is returned by Publish once Run has returned.
var ErrBusClosed = errors.New("event bus closed")

const defaultBusWorkers = 8

// Bus decouples publishers from subscribers with a buffered channel. Publish
// only blocks when the buffer is full.
//
// Run dispatches up to workers events at once. Events for one worker are
// delivered one at a time in publish order; events for different workers never
// wait on each other beyond the worker limit.
type Bus struct {
	queue      chan Event
	done       chan struct{}
	dispatcher *Dispatcher
	logger     *slog.Logger
	workers    int

	mu sync.Mutex
	// inflight holds, per worker with a dispatch running, the events queued
	// behind it.
	inflight map[id.WorkerID][]Event
}

type BusOption func(*Bus)

// WithWorkers bounds how many events are dispatched concurrently.
func WithWorkers(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.workers = n
		}
	}
}

func NewBus(dispatcher *Dispatcher, buffer int, logger *slog.Logger, opts ...BusOption) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	b := &Bus{
		queue:      make(chan Event, buffer),
		done:       make(chan struct{}),
		dispatcher: dispatcher,
		logger:     logger,
		workers:    defaultBusWorkers,
		inflight:   make(map[id.WorkerID][]Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.queue <- event:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued events until ctx is cancelled, then drains what is
// still queued and waits for every dispatch to finish. Handler errors are
// logged; the handler owns its own retry policy. Dispatch runs on a context
// detached from ctx so accepted events are not lost at shutdown.
func (b *Bus) Run(ctx context.Context) {
	defer close(b.done)
	dispatchCtx := context.WithoutCancel(ctx)
	g := new(errgroup.Group)
	g.SetLimit(b.workers)

	for {
		select {
		case event := <-b.queue:
			b.schedule(dispatchCtx, g, event)
		case <-ctx.Done():
			b.drain(dispatchCtx, g)
			_ = g.Wait()
			return
		}
	}
}

func (b *Bus) drain(ctx context.Context, g *errgroup.Group) {
	for {
		select {
		case event := <-b.queue:
			b.schedule(ctx, g, event)
		default:
			return
		}
	}
}

// schedule starts a lane for the event's worker, or queues the event behind
// the lane already running for it.
func (b *Bus) schedule(ctx context.Context, g *errgroup.Group, event Event) {
	b.mu.Lock()
	if queued, busy := b.inflight[event.WorkerID]; busy {
		b.inflight[event.WorkerID] = append(queued, event)
		b.mu.Unlock()
		return
	}
	b.inflight[event.WorkerID] = nil
	b.mu.Unlock()

	g.Go(func() error {
		b.lane(ctx, event)
		return nil
	})
}

// lane dispatches event and then everything queued behind it for the same
// worker.
func (b *Bus) lane(ctx context.Context, event Event) {
	for {
		b.dispatch(ctx, event)

		b.mu.Lock()
		queued := b.inflight[event.WorkerID]
		if len(queued) == 0 {
			delete(b.inflight, event.WorkerID)
			b.mu.Unlock()
			return
		}
		b.inflight[event.WorkerID] = queued[1:]
		event = queued[0]
		b.mu.Unlock()
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	if err := b.dispatcher.Publish(ctx, event); err != nil && b.logger != nil {
		b.logger.ErrorContext(ctx, "event dispatch failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"worker_id", event.WorkerID,
			"error", err,
		)
	}
}
