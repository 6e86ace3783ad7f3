package models

import (
	"strings"
	"time"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

// IdentityStatus summarises the worker's identity documents for display.
type IdentityStatus string

const (
	IdentityUnverified IdentityStatus = "unverified"
	IdentityPending    IdentityStatus = "pending"
	IdentityVerified   IdentityStatus = "verified"
)

// Status is the soft lifecycle state. Workers are never hard-deleted.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusSuspended:
		return Status(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be active or suspended")
	}
}

const (
	maxNameLength   = 128
	maxExperience   = 70
	completionParts = 6
)

// Worker is a tradesperson offering services.
//
// Invariants:
//   - DisplayName, Trade and City are non-empty
//   - ExperienceYears is within [0, 70]
//   - DeclaredExperienceYears is fixed at registration; profile edits never move it
//   - Licensed and TrustedByLocals are set by operators only
//   - ProfileCompletion is derived from the filled profile fields, never set directly
type Worker struct {
	ID                      id.WorkerID
	DisplayName             string
	Trade                   string
	City                    string
	Bio                     string
	Phone                   string
	ExperienceYears         int
	DeclaredExperienceYears int
	ProfileCompletion       int
	Approved                bool
	IdentityStatus          IdentityStatus
	Licensed                bool
	TrustedByLocals         bool
	Status                  Status
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// NewWorker builds a worker at registration time.
func NewWorker(workerID id.WorkerID, p Profile, now time.Time) (*Worker, error) {
	w := &Worker{
		ID:             workerID,
		IdentityStatus: IdentityUnverified,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.applyTo(w)
	w.DeclaredExperienceYears = w.ExperienceYears
	if err := w.validate(); err != nil {
		return nil, err
	}
	w.ProfileCompletion = w.completion()
	return w, nil
}

// Profile is the self-declared part of a worker record.
type Profile struct {
	DisplayName     string
	Trade           string
	City            string
	Bio             string
	Phone           string
	ExperienceYears int
}

func (p Profile) applyTo(w *Worker) {
	w.DisplayName = strings.TrimSpace(p.DisplayName)
	w.Trade = strings.TrimSpace(p.Trade)
	w.City = strings.TrimSpace(p.City)
	w.Bio = strings.TrimSpace(p.Bio)
	w.Phone = strings.TrimSpace(p.Phone)
	w.ExperienceYears = p.ExperienceYears
}

// ProfilePatch carries a partial profile update; nil fields are left alone.
type ProfilePatch struct {
	DisplayName     *string
	Trade           *string
	City            *string
	Bio             *string
	Phone           *string
	ExperienceYears *int
}

// ApplyPatch updates the profile and recomputes completion.
func (w *Worker) ApplyPatch(p ProfilePatch, now time.Time) error {
	next := *w
	if p.DisplayName != nil {
		next.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.Trade != nil {
		next.Trade = strings.TrimSpace(*p.Trade)
	}
	if p.City != nil {
		next.City = strings.TrimSpace(*p.City)
	}
	if p.Bio != nil {
		next.Bio = strings.TrimSpace(*p.Bio)
	}
	if p.Phone != nil {
		next.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.ExperienceYears != nil {
		next.ExperienceYears = *p.ExperienceYears
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.ProfileCompletion = next.completion()
	next.UpdatedAt = now
	*w = next
	return nil
}

// Credentials are the operator-attested flags that feed the identity score.
type Credentials struct {
	Licensed        *bool
	TrustedByLocals *bool
}

// ApplyCredentials records an operator's attestation. It reports whether
// anything changed.
func (w *Worker) ApplyCredentials(c Credentials, now time.Time) bool {
	changed := false
	if c.Licensed != nil && *c.Licensed != w.Licensed {
		w.Licensed = *c.Licensed
		changed = true
	}
	if c.TrustedByLocals != nil && *c.TrustedByLocals != w.TrustedByLocals {
		w.TrustedByLocals = *c.TrustedByLocals
		changed = true
	}
	if changed {
		w.UpdatedAt = now
	}
	return changed
}

func (w *Worker) IsActive() bool { return w.Status == StatusActive }

func (w *Worker) validate() error {
	switch {
	case w.DisplayName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "display name is required")
	case len(w.DisplayName) > maxNameLength:
		return dErrors.New(dErrors.CodeInvalidInput, "display name must be 128 characters or less")
	case w.Trade == "":
		return dErrors.New(dErrors.CodeInvalidInput, "trade is required")
	case w.City == "":
		return dErrors.New(dErrors.CodeInvalidInput, "city is required")
	case w.ExperienceYears < 0 || w.ExperienceYears > maxExperience:
		return dErrors.New(dErrors.CodeInvalidInput, "experience years must be between 0 and 70")
	}
	return nil
}

// completion is the share of filled profile fields, rounded down.
func (w *Worker) completion() int {
	filled := 0
	for _, ok := range []bool{
		w.DisplayName != "",
		w.Trade != "",
		w.City != "",
		w.Bio != "",
		w.Phone != "",
		w.ExperienceYears > 0,
	} {
		if ok {
			filled++
		}
	}
	return filled * 100 / completionParts
}
