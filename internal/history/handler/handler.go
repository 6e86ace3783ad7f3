package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crafted/internal/history/models"
	"crafted/internal/platform/middleware"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/httputil"
	"crafted/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error)
	RecordJobAssigned(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error)
	RecordJobCompleted(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error)
	RecordRating(ctx context.Context, workerID id.WorkerID, stars int) (*models.JobHistory, error)
}

type Handler struct {
	service  Service
	resolver middleware.PrincipalResolver
	logger   *slog.Logger
}

func New(service Service, resolver middleware.PrincipalResolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// Register mounts the job history routes. Job outcomes and ratings are
// reported by the booking flow with an operator token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workers/{id}/job-history", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Use(middleware.RequireOperator)
		r.Post("/workers/{id}/jobs/assigned", h.handleJobAssigned)
		r.Post("/workers/{id}/jobs/completed", h.handleJobCompleted)
		r.Post("/workers/{id}/ratings", h.handleRating)
	})
}

type historyResponse struct {
	WorkerID        string    `json:"worker_id"`
	TotalJobs       int       `json:"total_jobs"`
	CompletedJobs   int       `json:"completed_jobs"`
	AverageRating   float64   `json:"average_rating"`
	RatingCount     int       `json:"rating_count"`
	CompletionRatio float64   `json:"completion_ratio"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(h *models.JobHistory) historyResponse {
	return historyResponse{
		WorkerID:        h.WorkerID.String(),
		TotalJobs:       h.TotalJobs,
		CompletedJobs:   h.CompletedJobs,
		AverageRating:   h.AverageRating,
		RatingCount:     h.RatingCount,
		CompletionRatio: h.CompletionRatio(),
		UpdatedAt:       h.UpdatedAt,
	}
}

type ratingRequest struct {
	Stars int `json:"stars"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withWorker(w, r, "failed to load job history", h.service.Get)
}

func (h *Handler) handleJobAssigned(w http.ResponseWriter, r *http.Request) {
	h.withWorker(w, r, "failed to record assigned job", h.service.RecordJobAssigned)
}

func (h *Handler) handleJobCompleted(w http.ResponseWriter, r *http.Request) {
	h.withWorker(w, r, "failed to record completed job", h.service.RecordJobCompleted)
}

func (h *Handler) handleRating(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[ratingRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.withWorker(w, r, "failed to record rating", func(ctx context.Context, workerID id.WorkerID) (*models.JobHistory, error) {
		return h.service.RecordRating(ctx, workerID, req.Stars)
	})
}

func (h *Handler) withWorker(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, id.WorkerID) (*models.JobHistory, error)) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := fn(ctx, workerID)
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
	httputil.WriteJSON(w, http.StatusOK, toResponse(history))
}
