package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		token, ok := extractBearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

func TestAuthMiddlewarePopulatesIdentity(t *testing.T) {
	manager := authsvc.NewJWTManager("test-secret", time.Minute)
	service := authsvc.NewService(manager, nil, authsvc.MinRefreshTTL)

	accessToken, _, err := manager.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("identity missing from request context")
		}
		gotUserID = identity.UserID
		w.WriteHeader(http.StatusOK)
	})

	handler := AuthMiddleware(service, zap.NewNop())(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if gotUserID != 42 {
		t.Fatalf("unexpected user id: %d", gotUserID)
	}
}

func TestAuthMiddlewareRejectsMissingAndGarbageTokens(t *testing.T) {
	manager := authsvc.NewJWTManager("test-secret", time.Minute)
	service := authsvc.NewService(manager, nil, authsvc.MinRefreshTTL)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := AuthMiddleware(service, zap.NewNop())(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: unexpected status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: unexpected status %d", rec.Code)
	}
}
