package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crafted/internal/platform/postgres"
	"crafted/internal/worker/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
)

// PostgresWorkerStore persists workers in PostgreSQL.
type PostgresWorkerStore struct {
	db *sql.DB
}

func NewPostgresWorkerStore(db *sql.DB) *PostgresWorkerStore {
	return &PostgresWorkerStore{db: db}
}

const workerColumns = `id, display_name, trade, city, bio, phone, experience_years,
	declared_experience, profile_completion, approved, identity_status, licensed, trusted_by_locals,
	status, created_at, updated_at`

func (s *PostgresWorkerStore) Create(ctx context.Context, w *models.Worker) error {
	query := `INSERT INTO workers (` + workerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(w.ID), w.DisplayName, w.Trade, w.City, w.Bio, w.Phone, w.ExperienceYears,
		w.DeclaredExperienceYears, w.ProfileCompletion, w.Approved, string(w.IdentityStatus), w.Licensed, w.TrustedByLocals,
		string(w.Status), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("worker %s: %w", w.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (s *PostgresWorkerStore) FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+workerColumns+` FROM workers WHERE id = $1`, uuid.UUID(workerID))
	return scanWorker(row)
}

// Update locks the row for the duration of fn so concurrent updates to one
// worker serialize. declared_experience is written once by Create.
func (s *PostgresWorkerStore) Update(ctx context.Context, workerID id.WorkerID, fn func(*models.Worker) error) (*models.Worker, error) {
	var updated *models.Worker
	err := txcontext.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		w, err := scanWorker(exec.QueryRowContext(ctx,
			`SELECT `+workerColumns+` FROM workers WHERE id = $1 FOR UPDATE`, uuid.UUID(workerID)))
		if err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
		_, err = exec.ExecContext(ctx, `
			UPDATE workers SET
				display_name = $2, trade = $3, city = $4, bio = $5, phone = $6,
				experience_years = $7, profile_completion = $8, approved = $9,
				identity_status = $10, licensed = $11, trusted_by_locals = $12,
				status = $13, updated_at = $14
			WHERE id = $1`,
			uuid.UUID(w.ID), w.DisplayName, w.Trade, w.City, w.Bio, w.Phone,
			w.ExperienceYears, w.ProfileCompletion, w.Approved,
			string(w.IdentityStatus), w.Licensed, w.TrustedByLocals,
			string(w.Status), w.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update worker: %w", err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanWorker(row *sql.Row) (*models.Worker, error) {
	var (
		w              models.Worker
		workerID       uuid.UUID
		identityStatus string
		status         string
	)
	err := row.Scan(&workerID, &w.DisplayName, &w.Trade, &w.City, &w.Bio, &w.Phone,
		&w.ExperienceYears, &w.DeclaredExperienceYears, &w.ProfileCompletion, &w.Approved, &identityStatus,
		&w.Licensed, &w.TrustedByLocals, &status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan worker: %w", err)
	}
	w.ID = id.WorkerID(workerID)
	w.IdentityStatus = models.IdentityStatus(identityStatus)
	w.Status = models.Status(status)
	return &w, nil
}
