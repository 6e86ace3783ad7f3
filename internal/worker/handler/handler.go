package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crafted/internal/platform/middleware"
	"crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/httputil"
	"crafted/pkg/requestcontext"
)

// Service defines the worker operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Worker, error)
	Get(ctx context.Context, workerID id.WorkerID) (*models.Worker, error)
	UpdateProfile(ctx context.Context, workerID id.WorkerID, req *models.UpdateProfileRequest) (*models.Worker, error)
	SetApproval(ctx context.Context, workerID id.WorkerID, approved bool) (*models.Worker, error)
	SetStatus(ctx context.Context, workerID id.WorkerID, status models.Status) (*models.Worker, error)
	SetCredentials(ctx context.Context, workerID id.WorkerID, req *models.SetCredentialsRequest) (*models.Worker, error)
}

type Handler struct {
	service  Service
	resolver middleware.PrincipalResolver
	logger   *slog.Logger
}

func New(service Service, resolver middleware.PrincipalResolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// Register mounts the worker routes. Profiles are public; changes need a
// bearer token. Approval, status and credentials need an operator.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workers/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Post("/workers", h.handleRegister)
		r.Patch("/workers/{id}", h.handleUpdateProfile)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator)
			r.Put("/workers/{id}/approval", h.handleSetApproval)
			r.Put("/workers/{id}/status", h.handleSetStatus)
			r.Put("/workers/{id}/credentials", h.handleSetCredentials)
		})
	})
}

type workerResponse struct {
	ID                string    `json:"id"`
	DisplayName       string    `json:"display_name"`
	Trade             string    `json:"trade"`
	City              string    `json:"city"`
	Bio               string    `json:"bio,omitempty"`
	ExperienceYears   int       `json:"experience_years"`
	ProfileCompletion int       `json:"profile_completion"`
	Approved          bool      `json:"approved"`
	IdentityStatus    string    `json:"identity_status"`
	Licensed          bool      `json:"licensed"`
	TrustedByLocals   bool      `json:"trusted_by_locals"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// toResponse omits the phone number, which is only shared once a job is booked.
func toResponse(w *models.Worker) workerResponse {
	return workerResponse{
		ID:                w.ID.String(),
		DisplayName:       w.DisplayName,
		Trade:             w.Trade,
		City:              w.City,
		Bio:               w.Bio,
		ExperienceYears:   w.ExperienceYears,
		ProfileCompletion: w.ProfileCompletion,
		Approved:          w.Approved,
		IdentityStatus:    string(w.IdentityStatus),
		Licensed:          w.Licensed,
		TrustedByLocals:   w.TrustedByLocals,
		Status:            string(w.Status),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[models.RegisterRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid register worker request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.Register(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "failed to register worker", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(worker))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.Get(ctx, workerID)
	if err != nil {
		h.writeError(ctx, w, "failed to get worker", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(worker))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, ok := h.authorizedWorker(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.UpdateProfileRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.UpdateProfile(ctx, workerID, req)
	if err != nil {
		h.writeError(ctx, w, "failed to update worker profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(worker))
}

func (h *Handler) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.SetApprovalRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.SetApproval(ctx, workerID, req.Approved)
	if err != nil {
		h.writeError(ctx, w, "failed to set worker approval", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(worker))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.SetStatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.SetStatus(ctx, workerID, status)
	if err != nil {
		h.writeError(ctx, w, "failed to set worker status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(worker))
}

func (h *Handler) handleSetCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.SetCredentialsRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	worker, err := h.service.SetCredentials(ctx, workerID, req)
	if err != nil {
		h.writeError(ctx, w, "failed to set worker credentials", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(worker))
}

// authorizedWorker parses the {id} path parameter and checks the caller may
// act for that worker.
func (h *Handler) authorizedWorker(w http.ResponseWriter, r *http.Request) (id.WorkerID, bool) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.WorkerID{}, false
	}
	p, _ := requestcontext.Principal(r.Context())
	if !p.CanActFor(workerID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to act for this worker"))
		return id.WorkerID{}, false
	}
	return workerID, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if de, ok := dErrors.As(err); !ok || httputil.StatusFor(de.Code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
