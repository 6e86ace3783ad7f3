// Package postgres stores trust scores in the trust_scores table. Every
// upsert rewrites all columns in one statement; the table's CHECK constraints
// back the cap and sum invariants.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"crafted/internal/platform/postgres"
	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
)

type PostgresScoreStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresScoreStore {
	return &PostgresScoreStore{db: db}
}

const scoreColumns = `worker_id, overall_score, identity_score, skill_score, reputation_score,
	reliability_score, total_jobs, completed_jobs, average_rating, last_calculated`

func (s *PostgresScoreStore) Upsert(ctx context.Context, score *models.TrustScore) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO trust_scores (`+scoreColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (worker_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			identity_score = EXCLUDED.identity_score,
			skill_score = EXCLUDED.skill_score,
			reputation_score = EXCLUDED.reputation_score,
			reliability_score = EXCLUDED.reliability_score,
			total_jobs = EXCLUDED.total_jobs,
			completed_jobs = EXCLUDED.completed_jobs,
			average_rating = EXCLUDED.average_rating,
			last_calculated = EXCLUDED.last_calculated`,
		scoreArgs(score)...,
	)
	if err != nil {
		return writeErr("upsert", err)
	}
	return nil
}

func (s *PostgresScoreStore) InsertIfAbsent(ctx context.Context, score *models.TrustScore) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO trust_scores (`+scoreColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (worker_id) DO NOTHING`,
		scoreArgs(score)...,
	)
	if err != nil {
		return writeErr("insert", err)
	}
	return nil
}

func (s *PostgresScoreStore) FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+scoreColumns+` FROM trust_scores WHERE worker_id = $1`, uuid.UUID(workerID))
	score, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trust score %s: %w", workerID, sentinel.ErrNotFound)
	}
	return score, err
}

// FindMany reads every requested score in one round trip.
func (s *PostgresScoreStore) FindMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error) {
	out := make(map[id.WorkerID]*models.TrustScore, len(workerIDs))
	if len(workerIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(workerIDs))
	for i, workerID := range workerIDs {
		ids[i] = workerID.String()
	}
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+scoreColumns+` FROM trust_scores WHERE worker_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query trust scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out[score.WorkerID] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust scores: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScore(row scanner) (*models.TrustScore, error) {
	var (
		score    models.TrustScore
		workerID uuid.UUID
	)
	err := row.Scan(
		&workerID,
		&score.OverallScore,
		&score.IdentityScore,
		&score.SkillScore,
		&score.ReputationScore,
		&score.ReliabilityScore,
		&score.TotalJobs,
		&score.CompletedJobs,
		&score.AverageRating,
		&score.LastCalculated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan trust score: %w", err)
	}
	score.WorkerID = id.WorkerID(workerID)
	score.LastCalculated = score.LastCalculated.UTC()
	return &score, nil
}

func scoreArgs(score *models.TrustScore) []any {
	return []any{
		uuid.UUID(score.WorkerID),
		score.OverallScore,
		score.IdentityScore,
		score.SkillScore,
		score.ReputationScore,
		score.ReliabilityScore,
		score.TotalJobs,
		score.CompletedJobs,
		score.AverageRating,
		score.LastCalculated,
	}
}

func writeErr(op string, err error) error {
	if postgres.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s trust score for unknown worker: %w", op, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s trust score: %w", op, err)
}
