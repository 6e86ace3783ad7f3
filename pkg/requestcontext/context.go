// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Values are set by middleware and read by services, so services never import
// net/http. The authenticated principal is passed explicitly on the context of
// each request; there is no process-wide session.
//
//	principal, ok := requestcontext.Principal(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "crafted/pkg/domain"
)

type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Role distinguishes tradespeople acting on their own records from operators
// reviewing evidence.
type Role string

const (
	RoleWorker   Role = "worker"
	RoleOperator Role = "operator"
)

// AuthPrincipal is the caller identity resolved from a bearer token.
type AuthPrincipal struct {
	Subject  string
	Role     Role
	WorkerID id.WorkerID // set when Role is RoleWorker
}

func (p AuthPrincipal) IsOperator() bool { return p.Role == RoleOperator }

// CanActFor reports whether the principal may act on the given worker's records.
func (p AuthPrincipal) CanActFor(workerID id.WorkerID) bool {
	return p.IsOperator() || (p.Role == RoleWorker && p.WorkerID == workerID)
}

// Principal retrieves the authenticated caller.
func Principal(ctx context.Context) (AuthPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(AuthPrincipal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p AuthPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// ActorID returns the subject of the authenticated caller, or "system" for
// background work such as the expiry sweep.
func ActorID(ctx context.Context) string {
	if p, ok := Principal(ctx); ok && p.Subject != "" {
		return p.Subject
	}
	return "system"
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts like workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service tests
// and for batch jobs that need one consistent "now".
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
