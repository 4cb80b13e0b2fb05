package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/quickbasket/internal/auth"
)

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken pulls the JWT from the access_token cookie or, for API
// clients, the Authorization header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const UserContextKey contextKey = "user"

// Auth validates the JWT and adds the claims to the request context.
func Auth(jwtService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(tokenString)
			if err != nil {
				respondError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only users holding one of the given roles. Must run
// after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(UserContextKey).(*auth.Claims)
			if !ok {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondError(w, "forbidden", http.StatusForbidden)
		})
	}
}

// GetUserFromContext retrieves the claims put there by Auth.
func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	return claims, ok
}

// GetUserID returns just the user ID, or "" when unauthenticated.
func GetUserID(ctx context.Context) string {
	claims, ok := GetUserFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.UserID
}
