// Package authmw provides HTTP middleware that resolves the caller's nurse
// identity from a Bearer JWT. The pipeline never issues credentials; it only
// consumes an identity or its absence.
package authmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type identityKey struct{}

// Auth validates HS256-signed tokens whose subject is the nurse ID.
type Auth struct {
	secret []byte
}

// New creates an Auth with the given signing secret.
func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Require rejects requests without a valid identity with 401.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.identityFromRequest(r)
		if !ok {
			http.Error(w, `{"error":"not authorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional resolves an identity when a valid token is present and otherwise
// passes the request through anonymously. A malformed token is treated the
// same as no token.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := a.identityFromRequest(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) identityFromRequest(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := auth[len("Bearer "):]

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Identity extracts the caller identity from the context, empty if anonymous.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}
