package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "crafted/pkg/domain-errors"
)

// IDs must be valid, non-empty, non-nil UUIDs at every trust boundary.
func TestParseWorkerID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseWorkerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseWorkerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseWorkerID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID with surrounding whitespace", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseWorkerID("  " + u.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, WorkerID(u), id)
	})
}

func TestParseEvidenceIDs(t *testing.T) {
	u := uuid.New()

	doc, err := ParseDocumentID(u.String())
	require.NoError(t, err)
	assert.Equal(t, u.String(), doc.String())

	cert, err := ParseCertificationID(u.String())
	require.NoError(t, err)
	assert.False(t, cert.IsNil())

	_, err = ParseSkillProofID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestWorkerIDJSON(t *testing.T) {
	id := NewWorkerID()

	b, err := json.Marshal(struct {
		WorkerID WorkerID `json:"worker_id"`
	}{id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"worker_id":"`+id.String()+`"}`, string(b))

	var decoded struct {
		WorkerID WorkerID `json:"worker_id"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, id, decoded.WorkerID)
}
