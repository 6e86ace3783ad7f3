package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	historymodels "crafted/internal/history/models"
	workermodels "crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

type workerFunc func(context.Context, id.WorkerID) (*workermodels.Worker, error)

func (f workerFunc) Get(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error) {
	return f(ctx, workerID)
}

type historyFunc func(context.Context, id.WorkerID) (*historymodels.JobHistory, error)

func (f historyFunc) Get(ctx context.Context, workerID id.WorkerID) (*historymodels.JobHistory, error) {
	return f(ctx, workerID)
}

func TestWorkerAdapter(t *testing.T) {
	workerID := id.NewWorkerID()
	adapter := NewWorkerAdapter(workerFunc(func(_ context.Context, wid id.WorkerID) (*workermodels.Worker, error) {
		if wid != workerID {
			return nil, dErrors.New(dErrors.CodeNotFound, "worker not found")
		}
		return &workermodels.Worker{ID: wid, ExperienceYears: 40, DeclaredExperienceYears: 4, Licensed: true}, nil
	}))

	p, err := adapter.Profile(context.Background(), workerID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.ExperienceYears, "only the experience declared at registration counts")
	assert.True(t, p.Licensed)
	assert.False(t, p.TrustedByLocals)

	_, err = adapter.Profile(context.Background(), id.NewWorkerID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "not found must pass through untouched")
}

func TestHistoryAdapter(t *testing.T) {
	adapter := NewHistoryAdapter(historyFunc(func(_ context.Context, wid id.WorkerID) (*historymodels.JobHistory, error) {
		return &historymodels.JobHistory{WorkerID: wid, TotalJobs: 20, CompletedJobs: 18, AverageRating: 4.8, RatingCount: 20}, nil
	}))

	rec, err := adapter.JobRecord(context.Background(), id.NewWorkerID())
	require.NoError(t, err)
	assert.Equal(t, 18, rec.CompletedJobs)
	assert.Equal(t, 20, rec.RatingCount)
}
