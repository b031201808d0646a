package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	"minbar/pkg/platform/httputil"
	request "minbar/pkg/platform/middleware/request"
	"minbar/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// SessionChecker reports whether a token issued to subject at issuedAt was
// invalidated after it was issued.
type SessionChecker interface {
	IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject  string
	Role     domain.Role
	Name     string
	IssuedAt time.Time
}

func (c *JWTClaims) Actor() domain.Actor {
	return domain.Actor{ID: c.Subject, Role: c.Role, Name: c.Name}
}

// RequireAuth resolves the bearer token into the request's actor. Tokens
// issued before the subject's last session revocation are refused.
func RequireAuth(validator JWTValidator, sessions SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}
			if !claims.Role.IsValid() || claims.Subject == "" {
				logger.WarnContext(ctx, "unauthorized access - token without actor",
					"role", claims.Role,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			if sessions != nil {
				revoked, err := sessions.IsRevoked(ctx, claims.Subject, claims.IssuedAt)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check session revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - session revoked",
						"subject", claims.Subject,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session has been revoked"))
					return
				}
			}

			ctx = requestcontext.WithActor(ctx, claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the actor when a valid bearer token is present and
// lets anonymous requests through untouched. Invalid tokens are still refused.
func OptionalAuth(validator JWTValidator, sessions SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	required := RequireAuth(validator, sessions, logger)
	return func(next http.Handler) http.Handler {
		withActor := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			withActor.ServeHTTP(w, r)
		})
	}
}
