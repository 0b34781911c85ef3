package authmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func mintToken(t *testing.T, secret, subject string, opts ...func(*jwt.RegisteredClaims)) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	for _, opt := range opts {
		opt(&claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func identityEcho() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Identity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &got
}

func TestRequire_ValidToken(t *testing.T) {
	t.Parallel()

	a := New(testSecret)
	inner, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "nurse-1"))
	rec := httptest.NewRecorder()

	a.Require(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *got != "nurse-1" {
		t.Errorf("identity = %q, want %q", *got, "nurse-1")
	}
}

func TestRequire_Rejections(t *testing.T) {
	t.Parallel()

	a := New(testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + mintToken(t, "other-secret", "nurse-1")},
		{"empty subject", "Bearer " + mintToken(t, testSecret, "")},
		{"expired", "Bearer " + mintToken(t, testSecret, "nurse-1", func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inner, _ := identityEcho()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			a.Require(inner).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestOptional_AnonymousPassThrough(t *testing.T) {
	t.Parallel()

	a := New(testSecret)
	inner, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	a.Optional(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *got != "" {
		t.Errorf("identity = %q, want empty for anonymous", *got)
	}
}

func TestOptional_MalformedTreatedAsAnonymous(t *testing.T) {
	t.Parallel()

	a := New(testSecret)
	inner, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	a.Optional(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *got != "" {
		t.Errorf("identity = %q, want empty for malformed token", *got)
	}
}

func TestOptional_ValidTokenResolved(t *testing.T) {
	t.Parallel()

	a := New(testSecret)
	inner, got := identityEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "nurse-7"))
	rec := httptest.NewRecorder()

	a.Optional(inner).ServeHTTP(rec, req)

	if *got != "nurse-7" {
		t.Errorf("identity = %q, want %q", *got, "nurse-7")
	}
}

func TestIdentity_EmptyContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := Identity(req.Context()); id != "" {
		t.Errorf("identity = %q, want empty", id)
	}
}
