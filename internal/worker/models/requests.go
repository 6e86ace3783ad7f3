package models

import (
	dErrors "crafted/pkg/domain-errors"
)

type RegisterRequest struct {
	DisplayName     string `json:"display_name"`
	Trade           string `json:"trade"`
	City            string `json:"city"`
	Bio             string `json:"bio"`
	Phone           string `json:"phone"`
	ExperienceYears int    `json:"experience_years"`
}

func (r *RegisterRequest) Profile() Profile {
	return Profile{
		DisplayName:     r.DisplayName,
		Trade:           r.Trade,
		City:            r.City,
		Bio:             r.Bio,
		Phone:           r.Phone,
		ExperienceYears: r.ExperienceYears,
	}
}

type UpdateProfileRequest struct {
	DisplayName     *string `json:"display_name"`
	Trade           *string `json:"trade"`
	City            *string `json:"city"`
	Bio             *string `json:"bio"`
	Phone           *string `json:"phone"`
	ExperienceYears *int    `json:"experience_years"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName == nil && r.Trade == nil && r.City == nil && r.Bio == nil &&
		r.Phone == nil && r.ExperienceYears == nil {
		return dErrors.New(dErrors.CodeBadRequest, "at least one field is required")
	}
	return nil
}

func (r *UpdateProfileRequest) Patch() ProfilePatch {
	return ProfilePatch{
		DisplayName:     r.DisplayName,
		Trade:           r.Trade,
		City:            r.City,
		Bio:             r.Bio,
		Phone:           r.Phone,
		ExperienceYears: r.ExperienceYears,
	}
}

type SetApprovalRequest struct {
	Approved bool `json:"approved"`
}

// SetCredentialsRequest is an operator's attestation of the worker's license
// and local standing. Omitted fields are left alone.
type SetCredentialsRequest struct {
	Licensed        *bool `json:"licensed"`
	TrustedByLocals *bool `json:"trusted_by_locals"`
}

func (r *SetCredentialsRequest) Validate() error {
	if r.Licensed == nil && r.TrustedByLocals == nil {
		return dErrors.New(dErrors.CodeBadRequest, "licensed or trusted_by_locals is required")
	}
	return nil
}

func (r *SetCredentialsRequest) Credentials() Credentials {
	return Credentials{Licensed: r.Licensed, TrustedByLocals: r.TrustedByLocals}
}

type SetStatusRequest struct {
	Status string `json:"status"`
}
