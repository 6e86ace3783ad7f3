package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/requestcontext"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")

func Test_GenerateAndResolveWorkerToken(t *testing.T) {
	workerID := id.NewWorkerID()
	token, err := jwtService.GenerateToken("user-42", requestcontext.RoleWorker, workerID, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	p, err := jwtService.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, requestcontext.RoleWorker, p.Role)
	assert.Equal(t, workerID, p.WorkerID)
	assert.True(t, p.CanActFor(workerID))
	assert.False(t, p.CanActFor(id.NewWorkerID()))
}

func Test_OperatorToken(t *testing.T) {
	token, err := jwtService.GenerateToken("reviewer-1", requestcontext.RoleOperator, id.WorkerID{}, time.Hour)
	require.NoError(t, err)

	p, err := jwtService.Principal(token)
	require.NoError(t, err)
	assert.True(t, p.IsOperator())
	assert.True(t, p.CanActFor(id.NewWorkerID()))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_Expired(t *testing.T) {
	token, err := jwtService.GenerateToken("user-42", requestcontext.RoleOperator, id.WorkerID{}, -time.Minute)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token has expired")
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else")
	token, err := other.GenerateToken("user-42", requestcontext.RoleOperator, id.WorkerID{}, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Principal_WorkerTokenWithoutWorkerID(t *testing.T) {
	token, err := jwtService.GenerateToken("user-42", requestcontext.RoleWorker, id.WorkerID{}, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.Principal(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
