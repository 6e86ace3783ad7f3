// Package events carries the "something about this worker changed" signal
// from the modules that own evidence to the trust score engine.
//
// Every trigger that can move a score goes through one Publisher, so there is a
// single place that decides when to recompute. Events carry only the worker
// and the cause; subscribers always re-read the current evidence.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "crafted/pkg/domain"
)

type Type string

const (
	TypeWorkerRegistered     Type = "worker_registered"
	TypeWorkerProfileUpdated Type = "worker_profile_updated"
	TypeEvidenceChanged      Type = "evidence_changed"
	TypeHistoryChanged       Type = "history_changed"
)

// Event announces that a worker's evidence may have changed.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       Type        `json:"type"`
	WorkerID   id.WorkerID `json:"worker_id"`
	Source     string      `json:"source"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func New(t Type, workerID id.WorkerID, source string, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		WorkerID:   workerID,
		Source:     source,
		OccurredAt: at,
	}
}

// Publisher hands an event to whatever delivers it to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler consumes one event. Returning an error leaves redelivery to the
// transport.
type Handler func(ctx context.Context, event Event) error

// NopPublisher drops events. Used by tests and tools that do not recompute.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
