// Package service runs the evidence review workflow: workers submit items,
// operators verify or reject them, and verified identity documents expire.
// Every change that can move a trust score publishes an evidence_changed
// event.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crafted/internal/events"
	"crafted/internal/evidence/metrics"
	"crafted/internal/evidence/models"
	"crafted/internal/evidence/verification"
	workermodels "crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/audit"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
	"crafted/pkg/requestcontext"
)

const (
	kindIdentityDocument = "identity_document"
	kindCertification    = "certification"
	kindSkillProof       = "skill_proof"
)

type Store interface {
	SaveDocument(ctx context.Context, d *models.IdentityDocument) error
	FindDocument(ctx context.Context, docID id.DocumentID) (*models.IdentityDocument, error)
	UpdateDocument(ctx context.Context, docID id.DocumentID, fn func(*models.IdentityDocument) error) (*models.IdentityDocument, error)
	ListDocumentsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.IdentityDocument, error)
	ListDocumentsDueForExpiry(ctx context.Context, now time.Time) ([]*models.IdentityDocument, error)

	SaveCertification(ctx context.Context, c *models.Certification) error
	UpdateCertification(ctx context.Context, certID id.CertificationID, fn func(*models.Certification) error) (*models.Certification, error)
	ListCertificationsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Certification, error)

	SaveSkillProof(ctx context.Context, p *models.SkillProof) error
	UpdateSkillProof(ctx context.Context, proofID id.SkillProofID, fn func(*models.SkillProof) error) (*models.SkillProof, error)
	ListSkillProofsByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.SkillProof, error)
}

// WorkerDirectory is the part of the worker module evidence depends on.
type WorkerDirectory interface {
	Get(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
	SyncIdentityStatus(ctx context.Context, workerID id.WorkerID, status workermodels.IdentityStatus) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	workers WorkerDirectory
	events  events.Publisher
	audit   AuditPublisher
	tx      txcontext.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) { s.tx = r }
}

func New(store Store, workers WorkerDirectory, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		workers: workers,
		events:  publisher,
		tx:      txcontext.NoopRunner{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitIdentityDocument records a pending document. Pending documents carry
// no score, so no recompute is triggered; the worker's displayed identity
// status moves to pending.
func (s *Service) SubmitIdentityDocument(ctx context.Context, workerID id.WorkerID, req *models.SubmitIdentityDocumentRequest) (*models.IdentityDocument, error) {
	docType, err := models.ParseDocumentType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}
	doc, err := models.NewIdentityDocument(workerID, docType, req.Number, req.ExpiresAt, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, translate(err, "failed to save identity document")
	}
	s.metrics.IncrementSubmission(kindIdentityDocument)
	s.syncIdentityStatus(ctx, workerID)
	return doc, nil
}

func (s *Service) ReviewIdentityDocument(ctx context.Context, docID id.DocumentID, req *models.ReviewRequest) (*models.IdentityDocument, error) {
	decision, err := req.Parse()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reviewer := requestcontext.ActorID(ctx)

	var doc *models.IdentityDocument
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err = s.store.UpdateDocument(ctx, docID, func(d *models.IdentityDocument) error {
			next, err := verification.Apply(d.State, decision, reviewer, req.Reason, now)
			if err != nil {
				return err
			}
			d.State = next
			return nil
		})
		if err != nil {
			return err
		}
		return s.emitAudit(ctx, audit.Event{
			WorkerID: doc.WorkerID,
			Subject:  docID.String(),
			Action:   string(audit.EventIdentityDocumentReviewed),
			Decision: string(decision),
			Reason:   req.Reason,
		})
	})
	if err != nil {
		return nil, translate(err, "failed to review identity document")
	}

	s.metrics.IncrementReview(kindIdentityDocument, string(decision))
	s.logger.InfoContext(ctx, "identity document reviewed",
		"document_id", docID,
		"worker_id", doc.WorkerID,
		"decision", decision,
	)
	s.syncIdentityStatus(ctx, doc.WorkerID)
	s.publish(ctx, doc.WorkerID)
	return doc, nil
}

// ExpireIdentityDocument moves one verified document to expired.
func (s *Service) ExpireIdentityDocument(ctx context.Context, docID id.DocumentID) (*models.IdentityDocument, error) {
	now := requestcontext.Now(ctx)
	var doc *models.IdentityDocument
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.store.UpdateDocument(ctx, docID, func(d *models.IdentityDocument) error {
			next, err := verification.Expire(d.State, now)
			if err != nil {
				return err
			}
			d.State = next
			return nil
		})
		if err != nil {
			return err
		}
		return s.emitAudit(ctx, audit.Event{
			WorkerID: doc.WorkerID,
			Subject:  docID.String(),
			Action:   string(audit.EventIdentityDocumentExpired),
			Decision: string(verification.StatusExpired),
		})
	})
	if err != nil {
		return nil, translate(err, "failed to expire identity document")
	}

	s.metrics.IncrementExpired()
	s.logger.InfoContext(ctx, "identity document expired",
		"document_id", docID,
		"worker_id", doc.WorkerID,
	)
	s.syncIdentityStatus(ctx, doc.WorkerID)
	s.publish(ctx, doc.WorkerID)
	return doc, nil
}

// ExpireDueDocuments expires every verified document whose expiry has passed.
// A failure on one document does not stop the sweep; the returned error joins
// all failures.
func (s *Service) ExpireDueDocuments(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDocumentsDueForExpiry(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expiring documents")
	}
	ctx = requestcontext.WithTime(ctx, now)
	var (
		expired int
		errs    []error
	)
	for _, doc := range due {
		if _, err := s.ExpireIdentityDocument(ctx, doc.ID); err != nil {
			// Reviewed concurrently since the listing.
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				continue
			}
			errs = append(errs, fmt.Errorf("expire %s: %w", doc.ID, err))
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

func (s *Service) SubmitCertification(ctx context.Context, workerID id.WorkerID, req *models.SubmitCertificationRequest) (*models.Certification, error) {
	if err := s.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}
	cert, err := models.NewCertification(workerID, req.Name, req.Issuer, req.Number, req.IssuedOn, req.ExpiresOn, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCertification(ctx, cert); err != nil {
		return nil, translate(err, "failed to save certification")
	}
	s.metrics.IncrementSubmission(kindCertification)
	return cert, nil
}

func (s *Service) ReviewCertification(ctx context.Context, certID id.CertificationID, req *models.ReviewRequest) (*models.Certification, error) {
	decision, err := req.Parse()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reviewer := requestcontext.ActorID(ctx)

	var cert *models.Certification
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cert, err = s.store.UpdateCertification(ctx, certID, func(c *models.Certification) error {
			next, err := verification.Apply(c.State, decision, reviewer, req.Reason, now)
			if err != nil {
				return err
			}
			c.State = next
			return nil
		})
		if err != nil {
			return err
		}
		return s.emitAudit(ctx, audit.Event{
			WorkerID: cert.WorkerID,
			Subject:  certID.String(),
			Action:   string(audit.EventCertificationReviewed),
			Decision: string(decision),
			Reason:   req.Reason,
		})
	})
	if err != nil {
		return nil, translate(err, "failed to review certification")
	}
	s.metrics.IncrementReview(kindCertification, string(decision))
	s.publish(ctx, cert.WorkerID)
	return cert, nil
}

// SubmitSkillProof records a pending proof and triggers a recompute.
func (s *Service) SubmitSkillProof(ctx context.Context, workerID id.WorkerID, req *models.SubmitSkillProofRequest) (*models.SkillProof, error) {
	proofType, err := models.ParseProofType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}
	proof, err := models.NewSkillProof(workerID, proofType, req.DocumentRef, req.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveSkillProof(ctx, proof); err != nil {
		return nil, translate(err, "failed to save skill proof")
	}
	s.metrics.IncrementSubmission(kindSkillProof)
	s.publish(ctx, workerID)
	return proof, nil
}

func (s *Service) ReviewSkillProof(ctx context.Context, proofID id.SkillProofID, req *models.ReviewRequest) (*models.SkillProof, error) {
	decision, err := req.Parse()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reviewer := requestcontext.ActorID(ctx)

	var proof *models.SkillProof
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		proof, err = s.store.UpdateSkillProof(ctx, proofID, func(p *models.SkillProof) error {
			next, err := verification.Apply(p.State, decision, reviewer, req.Reason, now)
			if err != nil {
				return err
			}
			p.State = next
			return nil
		})
		if err != nil {
			return err
		}
		return s.emitAudit(ctx, audit.Event{
			WorkerID: proof.WorkerID,
			Subject:  proofID.String(),
			Action:   string(audit.EventSkillProofReviewed),
			Decision: string(decision),
			Reason:   req.Reason,
		})
	})
	if err != nil {
		return nil, translate(err, "failed to review skill proof")
	}
	s.metrics.IncrementReview(kindSkillProof, string(decision))
	s.publish(ctx, proof.WorkerID)
	return proof, nil
}

// ListByWorker returns every evidence item the worker has submitted.
func (s *Service) ListByWorker(ctx context.Context, workerID id.WorkerID) (*models.Summary, error) {
	if err := s.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocumentsByWorker(ctx, workerID)
	if err != nil {
		return nil, translate(err, "failed to list identity documents")
	}
	certs, err := s.store.ListCertificationsByWorker(ctx, workerID)
	if err != nil {
		return nil, translate(err, "failed to list certifications")
	}
	proofs, err := s.store.ListSkillProofsByWorker(ctx, workerID)
	if err != nil {
		return nil, translate(err, "failed to list skill proofs")
	}
	return &models.Summary{IdentityDocuments: docs, Certifications: certs, SkillProofs: proofs}, nil
}

// The Verified* readers feed the trust score engine. Errors are returned
// untranslated; the engine classifies them as evidence read failures.

func (s *Service) VerifiedIdentityDocuments(ctx context.Context, workerID id.WorkerID) (int, error) {
	docs, err := s.store.ListDocumentsByWorker(ctx, workerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		if verification.IsVerified(d.State) {
			n++
		}
	}
	return n, nil
}

func (s *Service) VerifiedCertifications(ctx context.Context, workerID id.WorkerID) (int, error) {
	certs, err := s.store.ListCertificationsByWorker(ctx, workerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range certs {
		if verification.IsVerified(c.State) {
			n++
		}
	}
	return n, nil
}

func (s *Service) VerifiedSkillProofs(ctx context.Context, workerID id.WorkerID) (int, error) {
	proofs, err := s.store.ListSkillProofsByWorker(ctx, workerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range proofs {
		if verification.IsVerified(p.State) {
			n++
		}
	}
	return n, nil
}

func (s *Service) requireWorker(ctx context.Context, workerID id.WorkerID) error {
	if _, err := s.workers.Get(ctx, workerID); err != nil {
		return translate(err, "failed to load worker")
	}
	return nil
}

// syncIdentityStatus derives the display status from all identity documents.
// Failures are logged; the status is recomputed on the next document change.
func (s *Service) syncIdentityStatus(ctx context.Context, workerID id.WorkerID) {
	docs, err := s.store.ListDocumentsByWorker(ctx, workerID)
	if err == nil {
		err = s.workers.SyncIdentityStatus(ctx, workerID, identityStatus(docs))
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to sync worker identity status",
			"worker_id", workerID,
			"error", err,
		)
	}
}

func identityStatus(docs []*models.IdentityDocument) workermodels.IdentityStatus {
	status := workermodels.IdentityUnverified
	for _, d := range docs {
		switch d.State.(type) {
		case verification.Verified:
			return workermodels.IdentityVerified
		case verification.Pending:
			status = workermodels.IdentityPending
		}
	}
	return status
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) error {
	if s.audit == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = requestcontext.ActorID(ctx)
	return s.audit.Emit(ctx, event)
}

func (s *Service) publish(ctx context.Context, workerID id.WorkerID) {
	if s.events == nil {
		return
	}
	event := events.New(events.TypeEvidenceChanged, workerID, "evidence", requestcontext.Now(ctx))
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish evidence event",
			"worker_id", workerID,
			"error", err,
		)
	}
}

func translate(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "evidence item not found")
	case errors.Is(err, verification.ErrInvalidTransition):
		return dErrors.New(dErrors.CodeConflict, "evidence item is not in a reviewable state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
