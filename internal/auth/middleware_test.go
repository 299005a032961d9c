package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/techswap/techswap-backend/internal/auth"
	"github.com/techswap/techswap-backend/internal/common/utils"
)

const (
	testSecret = "test-secret"
	testUserID = "5b8f0a1e-0000-4000-8000-000000000001"
	testEmail  = "maria@example.com"
)

func mintToken(t *testing.T, claims *utils.JWTClaims) string {
	t.Helper()
	token, err := utils.GenerateJWT(claims, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	return token
}

type contextCapture struct {
	called bool
	userID string
	email  string
}

func (c *contextCapture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.userID, _ = auth.GetUserIDFromContext(r.Context())
		c.email, _ = auth.GetEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateSetsContext(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	token := mintToken(t, utils.NewAccessClaims(testUserID, testEmail, time.Minute))

	req := httptest.NewRequest("GET", "/api/v1/messages/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Authenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !capture.called {
		t.Fatalf("inner handler never ran")
	}
	if capture.userID != testUserID {
		t.Fatalf("userID in context = %q, want %q", capture.userID, testUserID)
	}
	if capture.email != testEmail {
		t.Fatalf("email in context = %q, want %q", capture.email, testEmail)
	}
}

func TestAuthenticateRejectsMissingOrMalformedHeader(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"bare token", "sometoken"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		capture := &contextCapture{}
		req := httptest.NewRequest("GET", "/api/v1/messages/conversations", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()

		middleware.Authenticate(capture.handler()).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", tc.name, rec.Code)
		}
		if capture.called {
			t.Errorf("%s: inner handler must not run", tc.name)
		}
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	claims := utils.NewAccessClaims(testUserID, testEmail, time.Minute)
	claims.Type = "refresh"
	token := mintToken(t, claims)

	req := httptest.NewRequest("GET", "/api/v1/messages/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Authenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh tokens cannot call the API; expected 401, got %d", rec.Code)
	}
	if capture.called {
		t.Fatalf("inner handler must not run for a refresh token")
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	token := mintToken(t, utils.NewAccessClaims(testUserID, testEmail, -time.Minute))

	req := httptest.NewRequest("GET", "/api/v1/messages/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Authenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", rec.Code)
	}
	if capture.called {
		t.Fatalf("inner handler must not run for an expired token")
	}
}

func TestAuthenticateFallsBackToSubjectClaim(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	// Tokens minted by the hosted identity provider carry the user id in
	// "sub" with no "user_id" claim.
	claims := utils.NewAccessClaims("", testEmail, time.Minute)
	claims.Subject = testUserID
	token := mintToken(t, claims)

	req := httptest.NewRequest("GET", "/api/v1/messages/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Authenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capture.userID != testUserID {
		t.Fatalf("userID should fall back to the subject claim, got %q", capture.userID)
	}
}

func TestOptionalAuthenticateWithoutToken(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	req := httptest.NewRequest("GET", "/api/v1/listings", nil)
	rec := httptest.NewRecorder()

	middleware.OptionalAuthenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous requests must pass through, got %d", rec.Code)
	}
	if !capture.called {
		t.Fatalf("inner handler never ran")
	}
	if capture.userID != "" {
		t.Fatalf("anonymous request must carry no identity, got %q", capture.userID)
	}
}

func TestOptionalAuthenticateWithToken(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	token := mintToken(t, utils.NewAccessClaims(testUserID, testEmail, time.Minute))

	req := httptest.NewRequest("GET", "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.OptionalAuthenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capture.userID != testUserID {
		t.Fatalf("valid token should enrich the request, got %q", capture.userID)
	}
}

func TestOptionalAuthenticateInvalidTokenIsAnonymous(t *testing.T) {
	middleware := auth.NewMiddleware(testSecret)
	capture := &contextCapture{}

	req := httptest.NewRequest("GET", "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	middleware.OptionalAuthenticate(capture.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("invalid token on a public route degrades to anonymous, got %d", rec.Code)
	}
	if capture.userID != "" {
		t.Fatalf("invalid token must not set identity, got %q", capture.userID)
	}
}
