package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crafted/internal/evidence/models"
	"crafted/internal/platform/middleware"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/httputil"
	"crafted/pkg/requestcontext"
)

// Service defines the evidence operations exposed over HTTP.
type Service interface {
	SubmitIdentityDocument(ctx context.Context, workerID id.WorkerID, req *models.SubmitIdentityDocumentRequest) (*models.IdentityDocument, error)
	ReviewIdentityDocument(ctx context.Context, docID id.DocumentID, req *models.ReviewRequest) (*models.IdentityDocument, error)
	ExpireIdentityDocument(ctx context.Context, docID id.DocumentID) (*models.IdentityDocument, error)
	SubmitCertification(ctx context.Context, workerID id.WorkerID, req *models.SubmitCertificationRequest) (*models.Certification, error)
	ReviewCertification(ctx context.Context, certID id.CertificationID, req *models.ReviewRequest) (*models.Certification, error)
	SubmitSkillProof(ctx context.Context, workerID id.WorkerID, req *models.SubmitSkillProofRequest) (*models.SkillProof, error)
	ReviewSkillProof(ctx context.Context, proofID id.SkillProofID, req *models.ReviewRequest) (*models.SkillProof, error)
	ListByWorker(ctx context.Context, workerID id.WorkerID) (*models.Summary, error)
}

type Handler struct {
	service  Service
	resolver middleware.PrincipalResolver
	logger   *slog.Logger
}

func New(service Service, resolver middleware.PrincipalResolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// Register mounts the evidence routes. Workers submit and list their own
// evidence; reviews and manual expiry are operator-only.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.resolver, h.logger))
		r.Post("/workers/{id}/identity-documents", h.handleSubmitIdentityDocument)
		r.Post("/workers/{id}/certifications", h.handleSubmitCertification)
		r.Post("/workers/{id}/skill-proofs", h.handleSubmitSkillProof)
		r.Get("/workers/{id}/evidence", h.handleListEvidence)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator)
			r.Post("/identity-documents/{id}/review", h.handleReviewIdentityDocument)
			r.Post("/identity-documents/{id}/expire", h.handleExpireIdentityDocument)
			r.Post("/certifications/{id}/review", h.handleReviewCertification)
			r.Post("/skill-proofs/{id}/review", h.handleReviewSkillProof)
		})
	})
}

func (h *Handler) handleSubmitIdentityDocument(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.authorizedWorker(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.SubmitIdentityDocumentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.SubmitIdentityDocument(r.Context(), workerID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to submit identity document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleSubmitCertification(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.authorizedWorker(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.SubmitCertificationRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cert, err := h.service.SubmitCertification(r.Context(), workerID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to submit certification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCertificationResponse(cert))
}

func (h *Handler) handleSubmitSkillProof(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.authorizedWorker(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.SubmitSkillProofRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proof, err := h.service.SubmitSkillProof(r.Context(), workerID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to submit skill proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSkillProofResponse(proof))
}

func (h *Handler) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.authorizedWorker(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ListByWorker(r.Context(), workerID)
	if err != nil {
		h.writeError(r.Context(), w, "failed to list evidence", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvidenceResponse(summary))
}

func (h *Handler) handleReviewIdentityDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.ReviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.ReviewIdentityDocument(r.Context(), docID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to review identity document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleExpireIdentityDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.ExpireIdentityDocument(r.Context(), docID)
	if err != nil {
		h.writeError(r.Context(), w, "failed to expire identity document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleReviewCertification(w http.ResponseWriter, r *http.Request) {
	certID, err := id.ParseCertificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.ReviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cert, err := h.service.ReviewCertification(r.Context(), certID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to review certification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificationResponse(cert))
}

func (h *Handler) handleReviewSkillProof(w http.ResponseWriter, r *http.Request) {
	proofID, err := id.ParseSkillProofID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[models.ReviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proof, err := h.service.ReviewSkillProof(r.Context(), proofID, req)
	if err != nil {
		h.writeError(r.Context(), w, "failed to review skill proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSkillProofResponse(proof))
}

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
