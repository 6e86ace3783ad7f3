package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher delivers each event to every subscribed handler in the calling
// goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Publish runs all handlers and joins their errors. One failing handler does
// not stop the others.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		if d.logger != nil {
			d.logger.WarnContext(ctx, "event handler failed",
				"event_type", event.Type,
				"worker_id", event.WorkerID,
				"failures", len(errs),
			)
		}
		return fmt.Errorf("dispatch %s: %w", event.Type, errors.Join(errs...))
	}
	return nil
}
