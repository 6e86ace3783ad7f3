package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/platform/httputil"
	"crafted/pkg/requestcontext"
)

// PrincipalResolver turns a bearer token into the request principal.
type PrincipalResolver interface {
	Principal(tokenString string) (requestcontext.AuthPrincipal, error)
}

// RequireAuth resolves the bearer token and stores the principal on the
// request context. Requests without a valid token get 401.
func RequireAuth(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}
			principal, err := resolver.Principal(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

// RequireOperator rejects callers that are not operators. Must run after RequireAuth.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := requestcontext.Principal(r.Context())
		if !ok || !p.IsOperator() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "operator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
