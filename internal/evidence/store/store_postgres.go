package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crafted/internal/evidence/models"
	"crafted/internal/evidence/verification"
	"crafted/internal/platform/postgres"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
)

// PostgresStore persists evidence items. The verification state is flattened
// into status/reviewed_by/reviewed_at/rejection_reason/expired_at columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const documentColumns = `id, worker_id, document_type, document_number, expires_at, submitted_at,
	status, reviewed_by, reviewed_at, rejection_reason, expired_at`

func (s *PostgresStore) SaveDocument(ctx context.Context, d *models.IdentityDocument) error {
	rec := verification.Encode(d.State)
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO identity_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(d.ID), uuid.UUID(d.WorkerID), string(d.Type), d.Number, d.ExpiresAt, d.SubmittedAt,
		string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.RejectionReason, rec.ExpiredAt,
	)
	return insertErr("identity document", err)
}

func (s *PostgresStore) FindDocument(ctx context.Context, docID id.DocumentID) (*models.IdentityDocument, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM identity_documents WHERE id = $1`, uuid.UUID(docID))
	return scanDocument(row)
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, docID id.DocumentID, fn func(*models.IdentityDocument) error) (*models.IdentityDocument, error) {
	var updated *models.IdentityDocument
	err := txcontext.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		d, err := scanDocument(exec.QueryRowContext(ctx,
			`SELECT `+documentColumns+` FROM identity_documents WHERE id = $1 FOR UPDATE`, uuid.UUID(docID)))
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		if err := updateState(ctx, exec, "identity_documents", uuid.UUID(docID), d.State); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListDocumentsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.IdentityDocument, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM identity_documents WHERE worker_id = $1 ORDER BY submitted_at`,
		uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("list identity documents: %w", err)
	}
	return collectDocuments(rows)
}

func (s *PostgresStore) ListDocumentsDueForExpiry(ctx context.Context, now time.Time) ([]*models.IdentityDocument, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM identity_documents
		WHERE status = 'verified' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at`, now)
	if err != nil {
		return nil, fmt.Errorf("list expiring identity documents: %w", err)
	}
	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]*models.IdentityDocument, error) {
	defer rows.Close()
	var out []*models.IdentityDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity documents: %w", err)
	}
	return out, nil
}

func scanDocument(row scanner) (*models.IdentityDocument, error) {
	var (
		d               models.IdentityDocument
		docID, workerID uuid.UUID
		docType, status string
		rec             verification.Record
		expiresAt       sql.NullTime
		reviewedAt      sql.NullTime
		expiredAt       sql.NullTime
	)
	err := row.Scan(&docID, &workerID, &docType, &d.Number, &expiresAt, &d.SubmittedAt,
		&status, &rec.ReviewedBy, &reviewedAt, &rec.RejectionReason, &expiredAt)
	if err != nil {
		return nil, scanErr("identity document", err)
	}
	rec.Status = verification.Status(status)
	rec.ReviewedAt = nullTimePtr(reviewedAt)
	rec.ExpiredAt = nullTimePtr(expiredAt)
	state, err := verification.Decode(rec)
	if err != nil {
		return nil, fmt.Errorf("decode identity document %s: %w", docID, err)
	}
	d.ID = id.DocumentID(docID)
	d.WorkerID = id.WorkerID(workerID)
	d.Type = models.DocumentType(docType)
	d.ExpiresAt = nullTimePtr(expiresAt)
	d.State = state
	return &d, nil
}

const certificationColumns = `id, worker_id, name, issuer, certificate_number, issued_on, expires_on,
	submitted_at, status, reviewed_by, reviewed_at, rejection_reason`

func (s *PostgresStore) SaveCertification(ctx context.Context, c *models.Certification) error {
	rec := verification.Encode(c.State)
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO certifications (`+certificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(c.ID), uuid.UUID(c.WorkerID), c.Name, c.Issuer, c.Number, c.IssuedOn, c.ExpiresOn,
		c.SubmittedAt, string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.RejectionReason,
	)
	return insertErr("certification", err)
}

func (s *PostgresStore) UpdateCertification(ctx context.Context, certID id.CertificationID, fn func(*models.Certification) error) (*models.Certification, error) {
	var updated *models.Certification
	err := txcontext.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		c, err := scanCertification(exec.QueryRowContext(ctx,
			`SELECT `+certificationColumns+` FROM certifications WHERE id = $1 FOR UPDATE`, uuid.UUID(certID)))
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := updateState(ctx, exec, "certifications", uuid.UUID(certID), c.State); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListCertificationsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Certification, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+certificationColumns+` FROM certifications WHERE worker_id = $1 ORDER BY submitted_at`,
		uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()
	var out []*models.Certification
	for rows.Next() {
		c, err := scanCertification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certifications: %w", err)
	}
	return out, nil
}

func scanCertification(row scanner) (*models.Certification, error) {
	var (
		c                   models.Certification
		certID, workerID    uuid.UUID
		status              string
		rec                 verification.Record
		issuedOn, expiresOn sql.NullTime
		reviewedAt          sql.NullTime
	)
	err := row.Scan(&certID, &workerID, &c.Name, &c.Issuer, &c.Number, &issuedOn, &expiresOn,
		&c.SubmittedAt, &status, &rec.ReviewedBy, &reviewedAt, &rec.RejectionReason)
	if err != nil {
		return nil, scanErr("certification", err)
	}
	rec.Status = verification.Status(status)
	rec.ReviewedAt = nullTimePtr(reviewedAt)
	state, err := verification.Decode(rec)
	if err != nil {
		return nil, fmt.Errorf("decode certification %s: %w", certID, err)
	}
	c.ID = id.CertificationID(certID)
	c.WorkerID = id.WorkerID(workerID)
	c.IssuedOn = nullTimePtr(issuedOn)
	c.ExpiresOn = nullTimePtr(expiresOn)
	c.State = state
	return &c, nil
}

const skillProofColumns = `id, worker_id, proof_type, document_ref, description, submitted_at,
	status, reviewed_by, reviewed_at, rejection_reason`

func (s *PostgresStore) SaveSkillProof(ctx context.Context, p *models.SkillProof) error {
	rec := verification.Encode(p.State)
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO skill_proofs (`+skillProofColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(p.ID), uuid.UUID(p.WorkerID), string(p.Type), p.DocumentRef, p.Description,
		p.SubmittedAt, string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.RejectionReason,
	)
	return insertErr("skill proof", err)
}

func (s *PostgresStore) UpdateSkillProof(ctx context.Context, proofID id.SkillProofID, fn func(*models.SkillProof) error) (*models.SkillProof, error) {
	var updated *models.SkillProof
	err := txcontext.NewSQLRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		p, err := scanSkillProof(exec.QueryRowContext(ctx,
			`SELECT `+skillProofColumns+` FROM skill_proofs WHERE id = $1 FOR UPDATE`, uuid.UUID(proofID)))
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := updateState(ctx, exec, "skill_proofs", uuid.UUID(proofID), p.State); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListSkillProofsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.SkillProof, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+skillProofColumns+` FROM skill_proofs WHERE worker_id = $1 ORDER BY submitted_at`,
		uuid.UUID(workerID))
	if err != nil {
		return nil, fmt.Errorf("list skill proofs: %w", err)
	}
	defer rows.Close()
	var out []*models.SkillProof
	for rows.Next() {
		p, err := scanSkillProof(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skill proofs: %w", err)
	}
	return out, nil
}

func scanSkillProof(row scanner) (*models.SkillProof, error) {
	var (
		p                 models.SkillProof
		proofID, workerID uuid.UUID
		proofType, status string
		rec               verification.Record
		reviewedAt        sql.NullTime
	)
	err := row.Scan(&proofID, &workerID, &proofType, &p.DocumentRef, &p.Description, &p.SubmittedAt,
		&status, &rec.ReviewedBy, &reviewedAt, &rec.RejectionReason)
	if err != nil {
		return nil, scanErr("skill proof", err)
	}
	rec.Status = verification.Status(status)
	rec.ReviewedAt = nullTimePtr(reviewedAt)
	state, err := verification.Decode(rec)
	if err != nil {
		return nil, fmt.Errorf("decode skill proof %s: %w", proofID, err)
	}
	p.ID = id.SkillProofID(proofID)
	p.WorkerID = id.WorkerID(workerID)
	p.Type = models.ProofType(proofType)
	p.State = state
	return &p, nil
}

// updateState writes the flattened verification columns. Table names come
// from this file only.
func updateState(ctx context.Context, exec txcontext.Executor, table string, itemID uuid.UUID, state verification.State) error {
	rec := verification.Encode(state)
	query := `UPDATE ` + table + ` SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5`
	args := []any{itemID, string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.RejectionReason}
	if table == "identity_documents" {
		query += `, expired_at = $6`
		args = append(args, rec.ExpiredAt)
	}
	if _, err := exec.ExecContext(ctx, query+` WHERE id = $1`, args...); err != nil {
		return fmt.Errorf("update %s state: %w", table, err)
	}
	return nil
}

func insertErr(kind string, err error) error {
	switch {
	case err == nil:
		return nil
	case postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("%s for unknown worker: %w", kind, sentinel.ErrNotFound)
	case postgres.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", kind, sentinel.ErrConflict)
	default:
		return fmt.Errorf("insert %s: %w", kind, err)
	}
}

func scanErr(kind string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", kind, sentinel.ErrNotFound)
	}
	return fmt.Errorf("scan %s: %w", kind, err)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
