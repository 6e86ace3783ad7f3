package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

var now = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func TestNewWorker(t *testing.T) {
	t.Run("computes completion from filled fields", func(t *testing.T) {
		w, err := NewWorker(id.NewWorkerID(), Profile{
			DisplayName: " Youssef ",
			Trade:       "plombier",
			City:        "Casablanca",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, "Youssef", w.DisplayName)
		assert.Equal(t, 50, w.ProfileCompletion)
		assert.Equal(t, IdentityUnverified, w.IdentityStatus)
		assert.True(t, w.IsActive())
	})

	t.Run("full profile is 100 percent", func(t *testing.T) {
		w, err := NewWorker(id.NewWorkerID(), Profile{
			DisplayName:     "Amina",
			Trade:           "électricienne",
			City:            "Rabat",
			Bio:             "Installations résidentielles",
			Phone:           "+212600000000",
			ExperienceYears: 8,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, 100, w.ProfileCompletion)
	})

	t.Run("rejects missing trade", func(t *testing.T) {
		_, err := NewWorker(id.NewWorkerID(), Profile{DisplayName: "A", City: "Fès"}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative experience", func(t *testing.T) {
		_, err := NewWorker(id.NewWorkerID(), Profile{DisplayName: "A", Trade: "t", City: "c", ExperienceYears: -1}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestApplyPatch(t *testing.T) {
	w, err := NewWorker(id.NewWorkerID(), Profile{DisplayName: "Omar", Trade: "menuisier", City: "Tanger"}, now)
	require.NoError(t, err)

	t.Run("invalid patch leaves worker untouched", func(t *testing.T) {
		empty := ""
		before := *w
		err := w.ApplyPatch(ProfilePatch{City: &empty}, now.Add(time.Hour))
		assert.Error(t, err)
		assert.Equal(t, before, *w)
	})

	t.Run("valid patch recomputes completion", func(t *testing.T) {
		bio := "Portes et fenêtres"
		years := 4
		later := now.Add(2 * time.Hour)
		require.NoError(t, w.ApplyPatch(ProfilePatch{Bio: &bio, ExperienceYears: &years}, later))
		assert.Equal(t, 83, w.ProfileCompletion)
		assert.Equal(t, 4, w.ExperienceYears)
		assert.Equal(t, later, w.UpdatedAt)
	})

	t.Run("declared experience stays at the registration value", func(t *testing.T) {
		years := 70
		require.NoError(t, w.ApplyPatch(ProfilePatch{ExperienceYears: &years}, now.Add(3*time.Hour)))
		assert.Equal(t, 70, w.ExperienceYears)
		assert.Zero(t, w.DeclaredExperienceYears)
		assert.False(t, w.Licensed)
		assert.False(t, w.TrustedByLocals)
	})
}

func TestDeclaredExperienceFixedAtRegistration(t *testing.T) {
	w, err := NewWorker(id.NewWorkerID(), Profile{DisplayName: "Karim", Trade: "peintre", City: "Agadir", ExperienceYears: 6}, now)
	require.NoError(t, err)
	assert.Equal(t, 6, w.DeclaredExperienceYears)
	assert.False(t, w.Licensed, "registration never sets operator credentials")
}

func TestApplyCredentials(t *testing.T) {
	w, err := NewWorker(id.NewWorkerID(), Profile{DisplayName: "Samira", Trade: "plombière", City: "Oujda"}, now)
	require.NoError(t, err)
	yes, no := true, false
	later := now.Add(time.Hour)

	assert.True(t, w.ApplyCredentials(Credentials{Licensed: &yes}, later))
	assert.True(t, w.Licensed)
	assert.False(t, w.TrustedByLocals)
	assert.Equal(t, later, w.UpdatedAt)

	assert.False(t, w.ApplyCredentials(Credentials{Licensed: &yes, TrustedByLocals: &no}, later.Add(time.Hour)),
		"restating current values is not a change")
	assert.Equal(t, later, w.UpdatedAt)

	assert.True(t, w.ApplyCredentials(Credentials{TrustedByLocals: &yes}, later))
	assert.True(t, w.TrustedByLocals)
}
