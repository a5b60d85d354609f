package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/example/bizpanel/internal/api/middleware"
	"github.com/example/bizpanel/internal/auth"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

// UserFinder is satisfied by *store.UserStore.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*store.User, error)
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users      UserFinder
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	dummyHash  string
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(users UserFinder, hasher *auth.PasswordHasher, jwtService *auth.JWTService) *AuthHandlers {
	dummy, err := hasher.Hash("no-such-user-placeholder")
	if err != nil {
		log.Printf("[API] Failed to prepare dummy password hash: %v", err)
	}
	return &AuthHandlers{
		users:      users,
		hasher:     hasher,
		jwtService: jwtService,
		dummyHash:  dummy,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type LoginResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Login checks the credentials and issues an access token, both as a cookie
// for the browser and in the body for API clients.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.FindByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrUserNotFound) {
		// Spend the same bcrypt time as a real mismatch.
		_ = h.hasher.Check(req.Password, h.dummyHash)
		respondJSONError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[API] Login lookup failed for %q: %v", req.Username, err)
		respondJSONError(w, "Login is temporarily unavailable", http.StatusInternalServerError)
		return
	}

	if err := h.hasher.Check(req.Password, u.PasswordHash); err != nil {
		log.Printf("[API] Failed login for %q", req.Username)
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(auth.Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: u.Permissions,
	})
	if err != nil {
		respondJSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, LoginResponse{
		User: UserResponse{
			ID:          u.ID,
			Username:    u.Username,
			Role:        u.Role,
			Permissions: u.Permissions,
		},
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

// Logout clears the access token cookie.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the identity carried by the token.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, UserResponse{
		ID:          claims.UserID,
		Username:    claims.Username,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	})
}

