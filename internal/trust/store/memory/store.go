// Package memory keeps trust scores in process. Each write replaces the whole
// record under one lock, so readers never see a half-updated score.
package memory

import (
	"context"
	"fmt"
	"sync"

	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
)

type InMemoryScoreStore struct {
	mu     sync.RWMutex
	scores map[id.WorkerID]models.TrustScore
}

func New() *InMemoryScoreStore {
	return &InMemoryScoreStore{scores: make(map[id.WorkerID]models.TrustScore)}
}

func (s *InMemoryScoreStore) Upsert(_ context.Context, score *models.TrustScore) error {
	if score == nil {
		return fmt.Errorf("nil trust score: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[score.WorkerID] = *score
	return nil
}

func (s *InMemoryScoreStore) InsertIfAbsent(_ context.Context, score *models.TrustScore) error {
	if score == nil {
		return fmt.Errorf("nil trust score: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores[score.WorkerID]; !ok {
		s.scores[score.WorkerID] = *score
	}
	return nil
}

func (s *InMemoryScoreStore) FindByWorker(_ context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[workerID]
	if !ok {
		return nil, fmt.Errorf("trust score %s: %w", workerID, sentinel.ErrNotFound)
	}
	return &score, nil
}

func (s *InMemoryScoreStore) FindMany(_ context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.WorkerID]*models.TrustScore, len(workerIDs))
	for _, workerID := range workerIDs {
		if score, ok := s.scores[workerID]; ok {
			out[workerID] = &score
		}
	}
	return out, nil
}
