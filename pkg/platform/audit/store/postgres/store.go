package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "crafted/pkg/domain"
	audit "crafted/pkg/platform/audit"
	txcontext "crafted/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Append joins the
// transaction on ctx when one is present.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, worker_id, subject, action,
			decision, reason, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var workerID *uuid.UUID
	if !event.WorkerID.IsNil() {
		wid := uuid.UUID(event.WorkerID)
		workerID = &wid
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		workerID,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByWorker returns events for a worker, most recent first.
func (s *Store) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, worker_id, subject, action,
		       decision, reason, request_id, actor_id
		FROM audit_events
		WHERE worker_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
			wid      *uuid.UUID
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&wid,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if wid != nil {
			event.WorkerID = id.WorkerID(*wid)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
