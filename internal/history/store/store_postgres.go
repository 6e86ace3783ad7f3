package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crafted/internal/history/models"
	"crafted/internal/platform/postgres"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
)

type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

const historyColumns = `worker_id, total_jobs, completed_jobs, average_rating, rating_count, updated_at`

func (s *PostgresHistoryStore) FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM job_histories WHERE worker_id = $1`, uuid.UUID(workerID))
	return scanHistory(row)
}

// Update locks the aggregate row (if any) so concurrent job events for one
// worker serialize, then upserts the result.
func (s *PostgresHistoryStore) Update(ctx context.Context, workerID id.WorkerID, fn func(*models.JobHistory) error) (*models.JobHistory, error) {
	var updated *models.JobHistory
	err := txcontext.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		h, err := scanHistory(exec.QueryRowContext(ctx,
			`SELECT `+historyColumns+` FROM job_histories WHERE worker_id = $1 FOR UPDATE`, uuid.UUID(workerID)))
		if errors.Is(err, sentinel.ErrNotFound) {
			h = models.Empty(workerID)
		} else if err != nil {
			return err
		}
		if err := fn(h); err != nil {
			return err
		}
		_, err = exec.ExecContext(ctx, `
			INSERT INTO job_histories (`+historyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (worker_id) DO UPDATE SET
				total_jobs = EXCLUDED.total_jobs,
				completed_jobs = EXCLUDED.completed_jobs,
				average_rating = EXCLUDED.average_rating,
				rating_count = EXCLUDED.rating_count,
				updated_at = EXCLUDED.updated_at`,
			uuid.UUID(h.WorkerID), h.TotalJobs, h.CompletedJobs, h.AverageRating, h.RatingCount, h.UpdatedAt,
		)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return fmt.Errorf("job history for unknown worker: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("upsert job history: %w", err)
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanHistory(row *sql.Row) (*models.JobHistory, error) {
	var (
		h        models.JobHistory
		workerID uuid.UUID
	)
	err := row.Scan(&workerID, &h.TotalJobs, &h.CompletedJobs, &h.AverageRating, &h.RatingCount, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan job history: %w", err)
	}
	h.WorkerID = id.WorkerID(workerID)
	return &h, nil
}
