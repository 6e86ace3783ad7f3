package store

import (
	"context"
	"fmt"
	"sync"

	"crafted/internal/worker/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
)

// InMemoryWorkerStore keeps workers in a map. Records are copied in and out so
// callers never share a pointer with the store.
type InMemoryWorkerStore struct {
	mu      sync.RWMutex
	workers map[id.WorkerID]models.Worker
}

func NewInMemoryWorkerStore() *InMemoryWorkerStore {
	return &InMemoryWorkerStore{workers: make(map[id.WorkerID]models.Worker)}
}

func (s *InMemoryWorkerStore) Create(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workers[w.ID]; ok {
		return fmt.Errorf("worker %s: %w", w.ID, sentinel.ErrConflict)
	}
	s.workers[w.ID] = *w
	return nil
}

func (s *InMemoryWorkerStore) FindByID(_ context.Context, workerID id.WorkerID) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workers[workerID]
	if !ok {
		return nil, fmt.Errorf("worker %s: %w", workerID, sentinel.ErrNotFound)
	}
	return &w, nil
}

// Update runs fn against a copy and stores it only if fn succeeds.
func (s *InMemoryWorkerStore) Update(_ context.Context, workerID id.WorkerID, fn func(*models.Worker) error) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return nil, fmt.Errorf("worker %s: %w", workerID, sentinel.ErrNotFound)
	}
	if err := fn(&w); err != nil {
		return nil, err
	}
	s.workers[workerID] = w
	out := w
	return &out, nil
}
