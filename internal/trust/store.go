package trust

import (
	"context"

	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
)

// Store persists the one current TrustScore per worker.
//
// Upsert replaces the whole record atomically: readers see either the old or
// the new record, never a mix. FindByWorker returns sentinel.ErrNotFound for a
// worker that has never been scored. FindMany omits unknown workers.
// InsertIfAbsent never overwrites an existing record.
type Store interface {
	Upsert(ctx context.Context, score *models.TrustScore) error
	FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error)
	FindMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error)
	InsertIfAbsent(ctx context.Context, score *models.TrustScore) error
}
