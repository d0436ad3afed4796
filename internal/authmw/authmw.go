// Package authmw provides HTTP middleware for service authentication and
// caller identity. The upstream gateway terminates user authentication and
// forwards the verified identity in headers; this service only checks the
// shared service token and lifts the identity into the request context.
package authmw

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// Identity headers set by the gateway after user authentication.
const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

// Caller is the authenticated end user on whose behalf a request runs.
type Caller struct {
	UserID string
	Role   string
}

type callerKey struct{}

// BearerToken returns middleware that validates the Authorization header
// contains a Bearer token matching the expected value. Comparison uses
// constant-time equality to prevent timing side-channel attacks.
func BearerToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
				return
			}

			got := []byte(auth[len("Bearer "):])

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractCaller returns middleware that reads the gateway identity headers
// and stashes a Caller in the context. Requests without a user id are
// rejected; a missing role is left empty and defaulted downstream.
func ExtractCaller() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(HeaderUserID)
			if userID == "" {
				http.Error(w, `{"error":"missing user identity"}`, http.StatusUnauthorized)
				return
			}
			c := Caller{
				UserID: userID,
				Role:   r.Header.Get(HeaderRole),
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
		})
	}
}

// WithCaller returns a context carrying the caller identity.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the caller identity, if present.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
