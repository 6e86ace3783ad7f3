package models

import (
	"time"

	"crafted/internal/evidence/verification"
	dErrors "crafted/pkg/domain-errors"
)

type SubmitIdentityDocumentRequest struct {
	Type      string     `json:"document_type"`
	Number    string     `json:"document_number"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type SubmitCertificationRequest struct {
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer"`
	Number    string     `json:"certificate_number,omitempty"`
	IssuedOn  *time.Time `json:"issued_on,omitempty"`
	ExpiresOn *time.Time `json:"expires_on,omitempty"`
}

type SubmitSkillProofRequest struct {
	Type        string `json:"proof_type"`
	DocumentRef string `json:"document_ref"`
	Description string `json:"description,omitempty"`
}

// ReviewRequest is an operator's decision on a pending item.
type ReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// Parse validates the decision. Rejections must say why.
func (r *ReviewRequest) Parse() (verification.Decision, error) {
	d, err := verification.ParseDecision(r.Decision)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision must be verified or rejected")
	}
	if d == verification.DecisionReject && r.Reason == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "reason is required when rejecting")
	}
	return d, nil
}
