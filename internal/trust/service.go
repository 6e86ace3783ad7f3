// Package trust computes and serves worker trust scores.
//
// A recompute reads every evidence source, applies the pure scoring rules and
// replaces the stored record in one write. Reads never recompute; they return
// the stored record, or a zero record for a worker never scored.
package trust

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crafted/internal/trust/metrics"
	"crafted/internal/trust/models"
	"crafted/internal/trust/ports"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/audit"
	"crafted/pkg/platform/sentinel"
	"crafted/pkg/requestcontext"
)

const defaultEvidenceTimeout = 5 * time.Second

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store           Store
	workers         ports.WorkerPort
	evidence        ports.EvidencePort
	history         ports.HistoryPort
	audit           AuditPublisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	tracer          trace.Tracer
	evidenceTimeout time.Duration
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

// WithEvidenceTimeout bounds the parallel evidence reads of one recompute.
func WithEvidenceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.evidenceTimeout = d
		}
	}
}

func New(store Store, workers ports.WorkerPort, evidence ports.EvidencePort, history ports.HistoryPort, opts ...Option) *Service {
	s := &Service{
		store:           store,
		workers:         workers,
		evidence:        evidence,
		history:         history,
		logger:          slog.Default(),
		tracer:          otel.Tracer("crafted/internal/trust"),
		evidenceTimeout: defaultEvidenceTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type workerSnapshot ports.WorkerProfile

type historySnapshot ports.JobRecord

// Recompute rebuilds the worker's score from current evidence and replaces
// the stored record.
//
// Errors:
//   - not_found: the worker does not exist; nothing is written
//   - evidence_unavailable: an evidence source failed; the prior record is untouched
//   - persist_failed: the write failed; the prior record is untouched
//
// Running it twice on unchanged evidence yields the same scores.
func (s *Service) Recompute(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "trust.Recompute",
		trace.WithAttributes(attribute.String("worker.id", workerID.String())))
	defer span.End()

	score, outcome, err := s.recompute(ctx, workerID)
	s.metrics.IncrementOutcome(outcome)
	s.metrics.ObserveRecomputeLatency(time.Since(start))
	span.SetAttributes(attribute.String("trust.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("trust.overall", score.OverallScore),
		attribute.String("trust.tier", string(score.Tier())),
	)
	return score, nil
}

func (s *Service) recompute(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, string, error) {
	profile, err := timed(s, "worker", func() (*ports.WorkerProfile, error) {
		return s.workers.Profile(ctx, workerID)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrNotFound) {
			return nil, "not_found", dErrors.New(dErrors.CodeNotFound, "worker not found")
		}
		s.logger.WarnContext(ctx, "worker read failed during recompute",
			"worker_id", workerID,
			"error", err,
		)
		return nil, "evidence_unavailable", dErrors.Wrap(err, dErrors.CodeEvidenceUnavailable, "failed to read worker")
	}

	evidence, err := s.gatherEvidence(ctx, workerSnapshot(*profile))
	if err != nil {
		s.logger.WarnContext(ctx, "evidence read failed during recompute",
			"worker_id", workerID,
			"error", err,
		)
		return nil, "evidence_unavailable", dErrors.Wrap(err, dErrors.CodeEvidenceUnavailable, "failed to read evidence")
	}

	c := Score(evidence)
	score := &models.TrustScore{
		WorkerID:         workerID,
		OverallScore:     c.Overall(),
		IdentityScore:    c.Identity,
		SkillScore:       c.Skill,
		ReputationScore:  c.Reputation,
		ReliabilityScore: c.Reliability,
		TotalJobs:        evidence.TotalJobs,
		CompletedJobs:    evidence.CompletedJobs,
		AverageRating:    evidence.AverageRating,
		LastCalculated:   requestcontext.Now(ctx).UTC(),
	}
	if !score.Valid() {
		// Unreachable while Score clamps every component.
		return nil, "invariant_violation", dErrors.New(dErrors.CodeInvariantViolation, "computed trust score violates caps")
	}

	if err := s.store.Upsert(ctx, score); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist trust score",
			"worker_id", workerID,
			"error", err,
		)
		return nil, "persist_failed", dErrors.Wrap(err, dErrors.CodePersistFailed, "failed to persist trust score")
	}

	s.metrics.IncrementTier(string(score.Tier()))
	s.logger.InfoContext(ctx, "trust score recomputed",
		"worker_id", workerID,
		"overall", score.OverallScore,
		"identity", score.IdentityScore,
		"skill", score.SkillScore,
		"reputation", score.ReputationScore,
		"reliability", score.ReliabilityScore,
		"tier", score.Tier(),
	)
	s.emitAudit(ctx, score)
	return score, "ok", nil
}

// emitAudit records the recompute. The score is already committed, so an
// audit failure is logged rather than returned.
func (s *Service) emitAudit(ctx context.Context, score *models.TrustScore) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		WorkerID:  score.WorkerID,
		Subject:   score.WorkerID.String(),
		Action:    string(audit.EventTrustScoreRecalculated),
		Decision:  string(score.Tier()),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.ActorID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to audit trust score recompute",
			"worker_id", score.WorkerID,
			"error", err,
		)
	}
}

// GetCurrent returns the stored score. A worker that was never scored gets a
// zero record rather than an error.
func (s *Service) GetCurrent(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	score, err := s.store.FindByWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Zero(workerID, time.Time{}), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load trust score")
	}
	return score, nil
}

// GetCurrentMany returns one score per requested worker, zero records
// included, in a single store read.
func (s *Service) GetCurrentMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error) {
	out := make(map[id.WorkerID]*models.TrustScore, len(workerIDs))
	if len(workerIDs) == 0 {
		return out, nil
	}
	found, err := s.store.FindMany(ctx, workerIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load trust scores")
	}
	for _, workerID := range workerIDs {
		if score, ok := found[workerID]; ok {
			out[workerID] = score
			continue
		}
		out[workerID] = models.Zero(workerID, time.Time{})
	}
	return out, nil
}

// Initialize writes the all-zero record at registration. An existing record
// is left alone.
func (s *Service) Initialize(ctx context.Context, workerID id.WorkerID) error {
	return NewInitializer(s.store).Initialize(ctx, workerID)
}

// Initializer creates registration-time score records. It needs only the
// store, so the worker module can hold one without the engine's evidence
// ports.
type Initializer struct {
	store Store
}

func NewInitializer(store Store) *Initializer {
	return &Initializer{store: store}
}

func (i *Initializer) Initialize(ctx context.Context, workerID id.WorkerID) error {
	if err := i.store.InsertIfAbsent(ctx, models.Zero(workerID, requestcontext.Now(ctx).UTC())); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistFailed, "failed to initialize trust score")
	}
	return nil
}
