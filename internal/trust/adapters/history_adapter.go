package adapters

import (
	"context"

	historymodels "crafted/internal/history/models"
	"crafted/internal/trust/ports"
	id "crafted/pkg/domain"
)

type historyGetter interface {
	Get(ctx context.Context, workerID id.WorkerID) (*historymodels.JobHistory, error)
}

// HistoryAdapter exposes job history as a ports.HistoryPort.
type HistoryAdapter struct {
	history historyGetter
}

func NewHistoryAdapter(history historyGetter) *HistoryAdapter {
	return &HistoryAdapter{history: history}
}

func (a *HistoryAdapter) JobRecord(ctx context.Context, workerID id.WorkerID) (*ports.JobRecord, error) {
	h, err := a.history.Get(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return &ports.JobRecord{
		TotalJobs:     h.TotalJobs,
		CompletedJobs: h.CompletedJobs,
		AverageRating: h.AverageRating,
		RatingCount:   h.RatingCount,
	}, nil
}
