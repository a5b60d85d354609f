package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/bizpanel/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing-purposes", 15*time.Minute)
}

func tokenFor(t *testing.T, svc *auth.JWTService, perms ...string) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(auth.Identity{UserID: 7, Username: "ana", Role: "seller", Permissions: perms})
	require.NoError(t, err)
	return token
}

func captureClaims(out **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := GetUserFromContext(r.Context()); ok {
			*out = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================
// AuthMiddleware
// ============================================

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	svc := newTestJWTService()
	var claims *auth.Claims

	req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, svc))
	rec := httptest.NewRecorder()

	AuthMiddleware(svc)(captureClaims(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	svc := newTestJWTService()
	var claims *auth.Claims

	req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokenFor(t, svc)})
	rec := httptest.NewRecorder()

	AuthMiddleware(svc)(captureClaims(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "ana", claims.Username)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	svc := newTestJWTService()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no token", "", "unauthorized"},
		{"bad token", "Bearer garbage", "invalid token"},
		{"basic auth", "Basic dXNlcjpwYXNz", "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(svc)(http.NotFoundHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

type failingValidator struct{ err error }

func (v failingValidator) ValidateAccessToken(string) (*auth.Claims, error) { return nil, v.err }

func TestAuthMiddleware_HidesValidationDetail(t *testing.T) {
	validator := failingValidator{err: errors.New("token signature is invalid: key mismatch")}

	req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()

	AuthMiddleware(validator)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token","type":"danger"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "signature")
}

// ============================================
// RequirePermission
// ============================================

func TestRequirePermission(t *testing.T) {
	svc := newTestJWTService()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name  string
		perms []string
		want  int
	}{
		{"granted", []string{"create_sales"}, http.StatusNoContent},
		{"missing", []string{"view_sales"}, http.StatusForbidden},
		{"none", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sales", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, svc, tt.perms...))
			rec := httptest.NewRecorder()

			Chain(ok, AuthMiddleware(svc), RequirePermission("create_sales")).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	RequirePermission("view_sales")(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================
// RateLimiter
// ============================================

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/sales", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:5000"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiterFor("10.0.0.1")
	now = now.Add(time.Minute)
	rl.limiterFor("10.0.0.2")
	now = now.Add(150 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.visitors, 1)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]"
	assert.Equal(t, "::1", clientIP(req))

	req.RemoteAddr = "192.168.1.4:8080"
	assert.Equal(t, "192.168.1.4", clientIP(req))
}
