package middleware

import (
	"context"
	"net/http"
	"strings"

	"inventory-rest-api/internal/model"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/response"
)

// IdentityKey is the key for storing the caller's identity in request context.
const IdentityKey contextKey = "identity"

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Verifier TokenVerifier
}

// NewAuthMiddleware creates an authentication middleware with injected dependencies.
// Requests must carry "Authorization: Bearer <token>".
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Error(w, apierror.Unauthorized("No token, authorization denied"))
				return
			}

			identity, err := cfg.Verifier.VerifyToken(r.Context(), token)
			if err != nil {
				response.Error(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// IdentityFromContext retrieves the authenticated identity from request context.
func IdentityFromContext(ctx context.Context) *model.Identity {
	if identity, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return identity
	}
	return nil
}
