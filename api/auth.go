/*
auth.go - Bearer-token authentication middleware

PURPOSE:
  Verifies the Authorization header and threads the verified user ID
  into the request context. Credential verification itself is
  delegated: handlers never see token material, only a user ID that a
  TokenVerifier vouched for.

  The redemption core takes the user ID as an explicit parameter, so
  the context value lives only between this middleware and the
  handler.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/loop/rewards-engine/points"
)

// TokenVerifier resolves an opaque bearer token to a user identity.
// Production wires this to the external identity provider; tests use
// StaticVerifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (points.UserID, error)
}

// ErrInvalidToken is returned by verifiers for unknown or expired
// credentials.
var ErrInvalidToken = errors.New("invalid or expired token")

// StaticVerifier verifies tokens against a fixed token -> user table.
// Suitable for development and tests.
type StaticVerifier map[string]points.UserID

func (v StaticVerifier) Verify(_ context.Context, token string) (points.UserID, error) {
	if user, ok := v[token]; ok {
		return user, nil
	}
	return "", ErrInvalidToken
}

type contextKey int

const userContextKey contextKey = iota

// RequireAuth rejects requests without a valid bearer token and stores
// the verified user ID in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "Missing authorization header", nil)
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				writeError(w, http.StatusUnauthorized, "Malformed authorization header", nil)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the authenticated user set by RequireAuth.
func userFrom(r *http.Request) (points.UserID, bool) {
	user, ok := r.Context().Value(userContextKey).(points.UserID)
	return user, ok
}
