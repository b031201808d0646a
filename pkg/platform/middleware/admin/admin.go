// Package admin gates routes on the caller's role.
package admin

import (
	"log/slog"
	"net/http"
	"slices"

	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	"minbar/pkg/platform/httputil"
	request "minbar/pkg/platform/middleware/request"
	"minbar/pkg/requestcontext"
)

// RequireRole refuses callers whose role is not listed. It must run after
// the auth middleware.
func RequireRole(logger *slog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor, ok := requestcontext.Actor(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !slices.Contains(roles, actor.Role) {
				logger.WarnContext(ctx, "role not permitted",
					"actor_id", actor.ID,
					"role", actor.Role,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
