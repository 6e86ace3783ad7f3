package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/evidence/models"
	"crafted/internal/evidence/verification"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
)

func TestInMemoryStoreDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	workerID := id.NewWorkerID()
	expires := now.Add(time.Hour)

	doc, err := models.NewIdentityDocument(workerID, models.DocumentPassport, "P-1", &expires, now)
	require.NoError(t, err)
	require.NoError(t, s.SaveDocument(ctx, doc))

	t.Run("pending documents are never due", func(t *testing.T) {
		due, err := s.ListDocumentsDueForExpiry(ctx, expires.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("failed update is not applied", func(t *testing.T) {
		_, err := s.UpdateDocument(ctx, doc.ID, func(d *models.IdentityDocument) error {
			next, err := verification.Expire(d.State, now)
			d.State = next
			return err
		})
		assert.ErrorIs(t, err, verification.ErrInvalidTransition)
		found, err := s.FindDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, verification.StatusPending, found.State.Status())
	})

	t.Run("verified document becomes due at expiry", func(t *testing.T) {
		_, err := s.UpdateDocument(ctx, doc.ID, func(d *models.IdentityDocument) error {
			next, err := verification.Verify(d.State, "op", now)
			d.State = next
			return err
		})
		require.NoError(t, err)

		due, err := s.ListDocumentsDueForExpiry(ctx, expires)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, doc.ID, due[0].ID)
	})

	t.Run("lists only the worker's documents", func(t *testing.T) {
		other, err := models.NewIdentityDocument(id.NewWorkerID(), models.DocumentNationalID, "N-2", nil, now)
		require.NoError(t, err)
		require.NoError(t, s.SaveDocument(ctx, other))

		docs, err := s.ListDocumentsByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := s.FindDocument(ctx, id.NewDocumentID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStoreCertificationsAndProofs(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()
	workerID := id.NewWorkerID()

	first, err := models.NewCertification(workerID, "CAP", "OFPPT", "", nil, nil, now)
	require.NoError(t, err)
	second, err := models.NewCertification(workerID, "BTS", "OFPPT", "", nil, nil, now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, s.SaveCertification(ctx, second))
	require.NoError(t, s.SaveCertification(ctx, first))

	certs, err := s.ListCertificationsByWorker(ctx, workerID)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, "CAP", certs[0].Name, "ordered by submission time")

	_, err = s.UpdateSkillProof(ctx, id.NewSkillProofID(), func(*models.SkillProof) error { return nil })
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
