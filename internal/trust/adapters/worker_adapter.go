package adapters

import (
	"context"

	"crafted/internal/trust/ports"
	workermodels "crafted/internal/worker/models"
	id "crafted/pkg/domain"
)

type workerGetter interface {
	Get(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
}

// WorkerAdapter exposes the worker registry as a ports.WorkerPort.
type WorkerAdapter struct {
	workers workerGetter
}

func NewWorkerAdapter(workers workerGetter) *WorkerAdapter {
	return &WorkerAdapter{workers: workers}
}

func (a *WorkerAdapter) Profile(ctx context.Context, workerID id.WorkerID) (*ports.WorkerProfile, error) {
	w, err := a.workers.Get(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return &ports.WorkerProfile{
		WorkerID:        w.ID,
		ExperienceYears: w.DeclaredExperienceYears,
		Licensed:        w.Licensed,
		TrustedByLocals: w.TrustedByLocals,
	}, nil
}
