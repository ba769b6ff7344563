// Package auth provides the bearer-credential middleware: it extracts the
// Authorization header, validates the token, optionally checks revocation, and
// injects the subject into the request context for handlers and services.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
	"smartdoor/pkg/platform/httputil"
	"smartdoor/pkg/requestcontext"
)

// TokenValidator validates bearer tokens. Implemented by the token service
// adapter so this package stays free of JWT types.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// RevocationChecker reports whether a credential has been revoked by JTI.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenClaims are the claims the middleware needs from a validated credential.
type TokenClaims struct {
	SubjectID string
	JTI       string
}

// RequireAuth rejects requests without a valid bearer credential. The
// revocation checker is optional; pass nil to skip revocation checks.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			rawToken, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || rawToken == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeTokenMissing, "access token required"))
				return
			}

			claims, err := validator.ValidateToken(rawToken)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			subjectID, err := id.ParseSubjectID(claims.SubjectID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request - bad subject in token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeTokenInvalid, "invalid token"))
				return
			}

			if revocation != nil {
				revoked, err := revocation.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized request - token revoked",
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeTokenInvalid, "token has been revoked"))
					return
				}
			}

			ctx = requestcontext.WithSubjectID(ctx, subjectID)
			ctx = requestcontext.WithTokenJTI(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
