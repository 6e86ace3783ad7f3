package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"crafted/internal/events"
	"crafted/internal/platform/metrics"
	"crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/audit"
	"crafted/pkg/platform/sentinel"
	txcontext "crafted/pkg/platform/tx"
	"crafted/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, w *models.Worker) error
	FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error)
	Update(ctx context.Context, workerID id.WorkerID, fn func(*models.Worker) error) (*models.Worker, error)
}

// ScoreInitializer creates the all-zero trust score row for a new worker.
type ScoreInitializer interface {
	Initialize(ctx context.Context, workerID id.WorkerID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the worker registry.
type Service struct {
	store   Store
	scores  ScoreInitializer
	tx      txcontext.Runner
	events  events.Publisher
	audit   AuditPublisher
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

func New(store Store, scores ScoreInitializer, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		scores: scores,
		events: publisher,
		tx:     txcontext.NoopRunner{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the worker and its zero score in one unit of work, then
// announces the registration so the provisional skill credit is computed.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.Worker, error) {
	now := requestcontext.Now(ctx)
	w, err := models.NewWorker(id.NewWorkerID(), req.Profile(), now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, w); err != nil {
			return err
		}
		if err := s.scores.Initialize(ctx, w.ID); err != nil {
			return err
		}
		return s.emitAudit(ctx, audit.Event{
			WorkerID: w.ID,
			Subject:  w.ID.String(),
			Action:   string(audit.EventWorkerRegistered),
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "worker already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register worker")
	}

	s.metrics.IncrementWorkersCreated()
	s.logger.InfoContext(ctx, "worker registered",
		"worker_id", w.ID,
		"trade", w.Trade,
		"city", w.City,
	)
	s.publish(ctx, events.TypeWorkerRegistered, w.ID)
	return w, nil
}

func (s *Service) Get(ctx context.Context, workerID id.WorkerID) (*models.Worker, error) {
	w, err := s.store.FindByID(ctx, workerID)
	if err != nil {
		return nil, translate(err, "failed to load worker")
	}
	return w, nil
}

func (s *Service) UpdateProfile(ctx context.Context, workerID id.WorkerID, req *models.UpdateProfileRequest) (*models.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	w, err := s.store.Update(ctx, workerID, func(w *models.Worker) error {
		return w.ApplyPatch(req.Patch(), now)
	})
	if err != nil {
		return nil, translate(err, "failed to update worker")
	}
	s.publish(ctx, events.TypeWorkerProfileUpdated, workerID)
	return w, nil
}

// SetApproval records the operator's approval decision.
func (s *Service) SetApproval(ctx context.Context, workerID id.WorkerID, approved bool) (*models.Worker, error) {
	return s.auditedUpdate(ctx, workerID, audit.EventWorkerApprovalChanged, strconv.FormatBool(approved),
		func(w *models.Worker) error {
			w.Approved = approved
			return nil
		})
}

// SetStatus suspends or reactivates a worker. Workers are never deleted.
func (s *Service) SetStatus(ctx context.Context, workerID id.WorkerID, status models.Status) (*models.Worker, error) {
	return s.auditedUpdate(ctx, workerID, audit.EventWorkerStatusChanged, string(status),
		func(w *models.Worker) error {
			w.Status = status
			return nil
		})
}

// SetCredentials records an operator's license and local-standing
// attestation. Both feed the identity score, so a change triggers a recompute.
func (s *Service) SetCredentials(ctx context.Context, workerID id.WorkerID, req *models.SetCredentialsRequest) (*models.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	changed := false
	w, err := s.auditedUpdate(ctx, workerID, audit.EventWorkerCredentialsChanged, credentialsDecision(req),
		func(w *models.Worker) error {
			changed = w.ApplyCredentials(req.Credentials(), now)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, events.TypeWorkerProfileUpdated, workerID)
	}
	return w, nil
}

func credentialsDecision(req *models.SetCredentialsRequest) string {
	var parts []string
	if req.Licensed != nil {
		parts = append(parts, "licensed="+strconv.FormatBool(*req.Licensed))
	}
	if req.TrustedByLocals != nil {
		parts = append(parts, "trusted_by_locals="+strconv.FormatBool(*req.TrustedByLocals))
	}
	return strings.Join(parts, ",")
}

// SyncIdentityStatus mirrors the aggregate identity-document state onto the
// worker record for display.
func (s *Service) SyncIdentityStatus(ctx context.Context, workerID id.WorkerID, status models.IdentityStatus) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Update(ctx, workerID, func(w *models.Worker) error {
		if w.IdentityStatus == status {
			return nil
		}
		w.IdentityStatus = status
		w.UpdatedAt = now
		return nil
	})
	if err != nil {
		return translate(err, "failed to sync identity status")
	}
	return nil
}

func (s *Service) auditedUpdate(ctx context.Context, workerID id.WorkerID, action audit.AuditEvent, decision string, fn func(*models.Worker) error) (*models.Worker, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Worker
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.store.Update(ctx, workerID, func(w *models.Worker) error {
			if err := fn(w); err != nil {
				return err
			}
			w.UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}
		updated = w
		return s.emitAudit(ctx, audit.Event{
			WorkerID: workerID,
			Subject:  workerID.String(),
			Action:   string(action),
			Decision: decision,
		})
	})
	if err != nil {
		return nil, translate(err, "failed to update worker")
	}
	return updated, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) error {
	if s.audit == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = requestcontext.ActorID(ctx)
	return s.audit.Emit(ctx, event)
}

// publish never fails the caller: the change is committed and the next
// event for this worker recomputes from current evidence anyway.
func (s *Service) publish(ctx context.Context, t events.Type, workerID id.WorkerID) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.New(t, workerID, "worker", requestcontext.Now(ctx))); err != nil {
		s.logger.WarnContext(ctx, "failed to publish worker event",
			"event_type", t,
			"worker_id", workerID,
			"error", err,
		)
	}
}

func translate(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "worker not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
