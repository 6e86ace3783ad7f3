package testutil

import (
	"net/http"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/requestcontext"
)

// Tokens understood by StaticResolver.
const (
	OperatorToken = "operator-token"
	WorkerToken   = "worker-token"
)

// StaticResolver maps fixed bearer tokens to principals so handler tests do
// not need signed JWTs.
type StaticResolver map[string]requestcontext.AuthPrincipal

// NewStaticResolver knows an operator and a worker acting for workerID.
func NewStaticResolver(workerID id.WorkerID) StaticResolver {
	return StaticResolver{
		OperatorToken: {Subject: "operator-1", Role: requestcontext.RoleOperator},
		WorkerToken:   {Subject: "worker-" + workerID.String(), Role: requestcontext.RoleWorker, WorkerID: workerID},
	}
}

func (r StaticResolver) Principal(token string) (requestcontext.AuthPrincipal, error) {
	p, ok := r[token]
	if !ok {
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return p, nil
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
