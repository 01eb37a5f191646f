package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dwellio/dwellio-backend/internal/services"
)

type contextKey string

// ClaimsContextKey is where authenticated token claims live in the request context.
const ClaimsContextKey contextKey = "auth_claims"

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func ExtractBearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*services.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*services.TokenClaims)
	return claims, ok
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAuthError(w, "Authentication required")
			return
		}

		claims, err := services.ValidateToken(token)
		if err != nil {
			writeAuthError(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches claims when a valid token is present but never rejects.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r.Header.Get("Authorization"))
		if token != "" {
			if claims, err := services.ValidateToken(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects authenticated callers whose role is not in the allowed set.
// Must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, "Authentication required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"message":"You do not have permission to perform this action"}`))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
