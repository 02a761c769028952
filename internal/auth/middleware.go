package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey struct{}

var identityKey contextKey

// IdentityFromContext returns the identity attached by Middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware gates a route on a valid bearer access token. A missing or
// structurally unusable token answers 401; a parseable token that fails
// signature or expiry checks answers 403. On success the identity is
// attached to the request context.
func Middleware(issuer *TokenIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		raw := strings.TrimSpace(parts[1])
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization token")
			return
		}

		identity, err := issuer.VerifyAccessToken(raw)
		if err != nil {
			if errors.Is(err, ErrTokenMalformed) {
				writeError(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
