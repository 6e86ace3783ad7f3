package handler

import (
	"time"

	"crafted/internal/evidence/models"
	"crafted/internal/evidence/verification"
)

// reviewResponse flattens a verification state for API callers.
type reviewResponse struct {
	Status          string     `json:"status"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty"`
}

func toReview(s verification.State) reviewResponse {
	rec := verification.Encode(s)
	return reviewResponse{
		Status:          string(rec.Status),
		ReviewedBy:      rec.ReviewedBy,
		ReviewedAt:      rec.ReviewedAt,
		RejectionReason: rec.RejectionReason,
		ExpiredAt:       rec.ExpiredAt,
	}
}

type identityDocumentResponse struct {
	ID          string     `json:"id"`
	WorkerID    string     `json:"worker_id"`
	Type        string     `json:"document_type"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	reviewResponse
}

// The document number is never echoed back.
func toDocumentResponse(d *models.IdentityDocument) identityDocumentResponse {
	return identityDocumentResponse{
		ID:             d.ID.String(),
		WorkerID:       d.WorkerID.String(),
		Type:           string(d.Type),
		ExpiresAt:      d.ExpiresAt,
		SubmittedAt:    d.SubmittedAt,
		reviewResponse: toReview(d.State),
	}
}

type certificationResponse struct {
	ID          string     `json:"id"`
	WorkerID    string     `json:"worker_id"`
	Name        string     `json:"name"`
	Issuer      string     `json:"issuer"`
	IssuedOn    *time.Time `json:"issued_on,omitempty"`
	ExpiresOn   *time.Time `json:"expires_on,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	reviewResponse
}

func toCertificationResponse(c *models.Certification) certificationResponse {
	return certificationResponse{
		ID:             c.ID.String(),
		WorkerID:       c.WorkerID.String(),
		Name:           c.Name,
		Issuer:         c.Issuer,
		IssuedOn:       c.IssuedOn,
		ExpiresOn:      c.ExpiresOn,
		SubmittedAt:    c.SubmittedAt,
		reviewResponse: toReview(c.State),
	}
}

type skillProofResponse struct {
	ID          string    `json:"id"`
	WorkerID    string    `json:"worker_id"`
	Type        string    `json:"proof_type"`
	DocumentRef string    `json:"document_ref"`
	Description string    `json:"description,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	reviewResponse
}

func toSkillProofResponse(p *models.SkillProof) skillProofResponse {
	return skillProofResponse{
		ID:             p.ID.String(),
		WorkerID:       p.WorkerID.String(),
		Type:           string(p.Type),
		DocumentRef:    p.DocumentRef,
		Description:    p.Description,
		SubmittedAt:    p.SubmittedAt,
		reviewResponse: toReview(p.State),
	}
}

type evidenceResponse struct {
	IdentityDocuments []identityDocumentResponse `json:"identity_documents"`
	Certifications    []certificationResponse    `json:"certifications"`
	SkillProofs       []skillProofResponse       `json:"skill_proofs"`
}

func toEvidenceResponse(s *models.Summary) evidenceResponse {
	resp := evidenceResponse{
		IdentityDocuments: make([]identityDocumentResponse, 0, len(s.IdentityDocuments)),
		Certifications:    make([]certificationResponse, 0, len(s.Certifications)),
		SkillProofs:       make([]skillProofResponse, 0, len(s.SkillProofs)),
	}
	for _, d := range s.IdentityDocuments {
		resp.IdentityDocuments = append(resp.IdentityDocuments, toDocumentResponse(d))
	}
	for _, c := range s.Certifications {
		resp.Certifications = append(resp.Certifications, toCertificationResponse(c))
	}
	for _, p := range s.SkillProofs {
		resp.SkillProofs = append(resp.SkillProofs, toSkillProofResponse(p))
	}
	return resp
}
