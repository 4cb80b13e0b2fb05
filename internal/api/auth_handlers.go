package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/quickbasket/internal/account"
	"github.com/example/quickbasket/internal/api/middleware"
	"github.com/example/quickbasket/internal/auth"
	"github.com/example/quickbasket/internal/model"
)

// AuthHandlers covers registration, login and the token lifecycle. Sessions
// are stateless: the signed refresh token is the only session state.
type AuthHandlers struct {
	accounts *account.Service
	jwt      *auth.Service
}

func NewAuthHandlers(accounts *account.Service, jwtService *auth.Service) *AuthHandlers {
	return &AuthHandlers{accounts: accounts, jwt: jwtService}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			respondJSONError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, auth.ErrPasswordTooShort):
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		case errors.Is(err, account.ErrInvalidCredentials):
			respondJSONError(w, "A valid email address is required", http.StatusBadRequest)
		default:
			respondJSONError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusCreated, AuthResponse{User: userResponse(u), Message: "Registration successful"})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, account.ErrAccountDisabled):
			respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		default:
			respondJSONError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusOK, AuthResponse{User: userResponse(u), Message: "Login successful"})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwt.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	u, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	if !u.IsActive {
		h.clearAuthCookies(w)
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.accounts.GetUser(r.Context(), claims.UserID)
	if err != nil {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(u))
}

func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), claims.UserID, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, account.ErrMissingName) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(u))
}

func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.accounts.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			respondJSONError(w, "Current password is incorrect", http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordTooShort):
			respondJSONError(w, "New password must be at least 8 characters", http.StatusBadRequest)
		default:
			respondJSONError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, u *model.User) {
	pair, err := h.jwt.IssueTokens(u.ID, u.Email, u.Role)
	if err != nil {
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    pair.RefreshToken,
		Path:     "/api/auth/refresh",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
