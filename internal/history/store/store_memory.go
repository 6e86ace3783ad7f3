package store

import (
	"context"
	"fmt"
	"sync"

	"crafted/internal/history/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
)

type InMemoryHistoryStore struct {
	mu        sync.RWMutex
	histories map[id.WorkerID]models.JobHistory
}

func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{histories: make(map[id.WorkerID]models.JobHistory)}
}

func (s *InMemoryHistoryStore) FindByWorker(_ context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.histories[workerID]
	if !ok {
		return nil, fmt.Errorf("job history %s: %w", workerID, sentinel.ErrNotFound)
	}
	return &h, nil
}

// Update applies fn to the current aggregate, starting from an empty one, and
// stores the result only if fn succeeds.
func (s *InMemoryHistoryStore) Update(_ context.Context, workerID id.WorkerID, fn func(*models.JobHistory) error) (*models.JobHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[workerID]
	if !ok {
		h = *models.Empty(workerID)
	}
	if err := fn(&h); err != nil {
		return nil, err
	}
	s.histories[workerID] = h
	out := h
	return &out, nil
}
