// Package models holds the three evidence kinds a worker submits for review.
// Each item carries its review lifecycle as a verification.State.
package models

import (
	"strings"
	"time"

	"crafted/internal/evidence/verification"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

type DocumentType string

const (
	DocumentNationalID          DocumentType = "national_id"
	DocumentPassport            DocumentType = "passport"
	DocumentDrivingLicense      DocumentType = "driving_license"
	DocumentProfessionalLicense DocumentType = "professional_license"
)

func ParseDocumentType(s string) (DocumentType, error) {
	switch t := DocumentType(s); t {
	case DocumentNationalID, DocumentPassport, DocumentDrivingLicense, DocumentProfessionalLicense:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document type")
	}
}

type ProofType string

const (
	ProofCertificate ProofType = "certificate"
	ProofLicense     ProofType = "license"
	ProofWorkPhoto   ProofType = "work_photo"
	ProofWorkPDF     ProofType = "work_pdf"
	ProofTestimonial ProofType = "testimonial"
)

func ParseProofType(s string) (ProofType, error) {
	switch t := ProofType(s); t {
	case ProofCertificate, ProofLicense, ProofWorkPhoto, ProofWorkPDF, ProofTestimonial:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported proof type")
	}
}

// IdentityDocument is a government or professional ID submitted for review.
// Only identity documents expire.
type IdentityDocument struct {
	ID          id.DocumentID
	WorkerID    id.WorkerID
	Type        DocumentType
	Number      string
	ExpiresAt   *time.Time
	SubmittedAt time.Time
	State       verification.State
}

func NewIdentityDocument(workerID id.WorkerID, t DocumentType, number string, expiresAt *time.Time, now time.Time) (*IdentityDocument, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document number is required")
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document is already expired")
	}
	return &IdentityDocument{
		ID:          id.NewDocumentID(),
		WorkerID:    workerID,
		Type:        t,
		Number:      number,
		ExpiresAt:   expiresAt,
		SubmittedAt: now,
		State:       verification.Pending{},
	}, nil
}

// DueForExpiry reports whether a verified document has passed its expiry date.
func (d *IdentityDocument) DueForExpiry(now time.Time) bool {
	return verification.IsVerified(d.State) && d.ExpiresAt != nil && !now.Before(*d.ExpiresAt)
}

// Certification is a trade certificate issued by a third party.
type Certification struct {
	ID          id.CertificationID
	WorkerID    id.WorkerID
	Name        string
	Issuer      string
	Number      string
	IssuedOn    *time.Time
	ExpiresOn   *time.Time
	SubmittedAt time.Time
	State       verification.State
}

func NewCertification(workerID id.WorkerID, name, issuer, number string, issuedOn, expiresOn *time.Time, now time.Time) (*Certification, error) {
	name = strings.TrimSpace(name)
	issuer = strings.TrimSpace(issuer)
	switch {
	case name == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "certification name is required")
	case issuer == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "certification issuer is required")
	case issuedOn != nil && expiresOn != nil && !expiresOn.After(*issuedOn):
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must be after issue date")
	}
	return &Certification{
		ID:          id.NewCertificationID(),
		WorkerID:    workerID,
		Name:        name,
		Issuer:      issuer,
		Number:      strings.TrimSpace(number),
		IssuedOn:    issuedOn,
		ExpiresOn:   expiresOn,
		SubmittedAt: now,
		State:       verification.Pending{},
	}, nil
}

// SkillProof is a photo, document or testimonial showing completed work.
// DocumentRef points at the uploaded artefact; upload itself happens elsewhere.
type SkillProof struct {
	ID          id.SkillProofID
	WorkerID    id.WorkerID
	Type        ProofType
	DocumentRef string
	Description string
	SubmittedAt time.Time
	State       verification.State
}

func NewSkillProof(workerID id.WorkerID, t ProofType, ref, description string, now time.Time) (*SkillProof, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document_ref is required")
	}
	return &SkillProof{
		ID:          id.NewSkillProofID(),
		WorkerID:    workerID,
		Type:        t,
		DocumentRef: ref,
		Description: strings.TrimSpace(description),
		SubmittedAt: now,
		State:       verification.Pending{},
	}, nil
}

// Summary is every evidence item a worker has submitted.
type Summary struct {
	IdentityDocuments []*IdentityDocument
	Certifications    []*Certification
	SkillProofs       []*SkillProof
}
