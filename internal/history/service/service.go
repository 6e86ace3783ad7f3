package service

import (
	"context"
	"errors"
	"log/slog"

	"crafted/internal/events"
	"crafted/internal/history/models"
	workermodels "crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/sentinel"
	"crafted/pkg/requestcontext"
)

type Store interface {
	FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error)
	Update(ctx context.Context, workerID id.WorkerID, fn func(*models.JobHistory) error) (*models.JobHistory, error)
}

type WorkerDirectory interface {
	Get(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
}

// Service records job outcomes and ratings reported by the booking and
// review flows.
type Service struct {
	store   Store
	workers WorkerDirectory
	events  events.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, workers WorkerDirectory, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{store: store, workers: workers, events: publisher, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the worker's aggregate. A worker without recorded jobs has an
// all-zero aggregate, not an error.
func (s *Service) Get(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
	h, err := s.store.FindByWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Empty(workerID), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job history")
	}
	return h, nil
}

func (s *Service) RecordJobAssigned(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
	now := requestcontext.Now(ctx)
	return s.update(ctx, workerID, func(h *models.JobHistory) error {
		h.RecordAssigned(now)
		return nil
	})
}

func (s *Service) RecordJobCompleted(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
	now := requestcontext.Now(ctx)
	return s.update(ctx, workerID, func(h *models.JobHistory) error {
		return h.RecordCompleted(now)
	})
}

func (s *Service) RecordRating(ctx context.Context, workerID id.WorkerID, stars int) (*models.JobHistory, error) {
	now := requestcontext.Now(ctx)
	return s.update(ctx, workerID, func(h *models.JobHistory) error {
		return h.RecordRating(stars, now)
	})
}

func (s *Service) update(ctx context.Context, workerID id.WorkerID, fn func(*models.JobHistory) error) (*models.JobHistory, error) {
	if _, err := s.workers.Get(ctx, workerID); err != nil {
		return nil, err
	}
	h, err := s.store.Update(ctx, workerID, fn)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "worker not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update job history")
	}

	s.publish(ctx, workerID)
	return h, nil
}

// publish never fails the caller; the outcome is already recorded.
func (s *Service) publish(ctx context.Context, workerID id.WorkerID) {
	if s.events == nil {
		return
	}
	event := events.New(events.TypeHistoryChanged, workerID, "history", requestcontext.Now(ctx))
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish history event",
			"worker_id", workerID,
			"error", err,
		)
	}
}
