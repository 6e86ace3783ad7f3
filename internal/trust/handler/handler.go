package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crafted/internal/platform/middleware"
	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/httputil"
	pstrings "crafted/pkg/platform/strings"
	"crafted/pkg/requestcontext"
)

// maxBatch bounds one batch read so a search page cannot fan out unbounded.
const maxBatch = 100

type Service interface {
	Recompute(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error)
	GetCurrent(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error)
	GetCurrentMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error)
}

type Handler struct {
	service  Service
	resolver middleware.PrincipalResolver
	logger   *slog.Logger
}

func New(service Service, resolver middleware.PrincipalResolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// Register mounts the trust score routes. Reads are public; a forced
// recompute is an operator action.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workers/{id}/trust-score", h.handleGet)
	r.Get("/trust-scores", h.handleBatch)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Use(middleware.RequireOperator)
		r.Post("/workers/{id}/trust-score/recalculate", h.handleRecalculate)
	})
}

type scoreResponse struct {
	WorkerID         string      `json:"worker_id"`
	OverallScore     int         `json:"overall_score"`
	IdentityScore    int         `json:"identity_score"`
	SkillScore       int         `json:"skill_score"`
	ReputationScore  int         `json:"reputation_score"`
	ReliabilityScore int         `json:"reliability_score"`
	TotalJobs        int         `json:"total_jobs"`
	CompletedJobs    int         `json:"completed_jobs"`
	AverageRating    float64     `json:"average_rating"`
	Tier             models.Tier `json:"tier"`
	LastCalculated   *time.Time  `json:"last_calculated,omitempty"`
}

type batchResponse struct {
	Scores []scoreResponse `json:"scores"`
}

func toResponse(s *models.TrustScore) scoreResponse {
	resp := scoreResponse{
		WorkerID:         s.WorkerID.String(),
		OverallScore:     s.OverallScore,
		IdentityScore:    s.IdentityScore,
		SkillScore:       s.SkillScore,
		ReputationScore:  s.ReputationScore,
		ReliabilityScore: s.ReliabilityScore,
		TotalJobs:        s.TotalJobs,
		CompletedJobs:    s.CompletedJobs,
		AverageRating:    s.AverageRating,
		Tier:             s.Tier(),
	}
	if !s.LastCalculated.IsZero() {
		at := s.LastCalculated
		resp.LastCalculated = &at
	}
	return resp
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withWorker(w, r, "failed to load trust score", h.service.GetCurrent)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	h.withWorker(w, r, "failed to recompute trust score", h.service.Recompute)
}

// handleBatch accepts worker_id repeated or comma separated and answers in
// request order, zero records included.
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := pstrings.SplitList(r.URL.Query()["worker_id"])
	if len(raw) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "worker_id is required"))
		return
	}
	if len(raw) > maxBatch {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "too many worker ids"))
		return
	}
	workerIDs := make([]id.WorkerID, 0, len(raw))
	for _, v := range raw {
		workerID, err := id.ParseWorkerID(v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		workerIDs = append(workerIDs, workerID)
	}

	scores, err := h.service.GetCurrentMany(ctx, workerIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load trust scores",
			"request_id", requestcontext.RequestID(ctx),
			"count", len(workerIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := batchResponse{Scores: make([]scoreResponse, 0, len(workerIDs))}
	for _, workerID := range workerIDs {
		if s, ok := scores[workerID]; ok {
			resp.Scores = append(resp.Scores, toResponse(s))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) withWorker(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, id.WorkerID) (*models.TrustScore, error)) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	score, err := fn(ctx, workerID)
	if err != nil {
		if de, ok := dErrors.As(err); !ok || httputil.StatusFor(de.Code) >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, msg,
				"request_id", requestcontext.RequestID(ctx),
				"worker_id", workerID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(score))
}
