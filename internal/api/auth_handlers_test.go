package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/bizpanel/internal/api/middleware"
	"github.com/example/bizpanel/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ============================================
// Login
// ============================================

func TestLogin_Success(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(loginRequest(`{"username":"ana","password":"correct-horse"}`), "")

	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	claims, err := s.jwt.ValidateAccessToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.True(t, claims.Can(store.PermCreateSales))

	body := decodeBody(t, rec)
	assert.Equal(t, cookie.Value, body["access_token"])
}

func TestLogin_TokenOpensProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	login := s.do(loginRequest(`{"username":"ana","password":"correct-horse"}`), "")
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := s.do(req, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", decodeBody(t, rec)["username"])
}

func TestLogin_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"username":"ana","password":"wrong-horse"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"bob","password":"correct-horse"}`, http.StatusUnauthorized},
		{"bad body", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rec := s.do(loginRequest(tt.body), "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogin_StoreDown(t *testing.T) {
	s := newTestServer(t)
	s.users.err = errors.New("connection refused")

	rec := s.do(loginRequest(`{"username":"ana","password":"correct-horse"}`), "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "")

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AccessTokenCookie, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
