package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/pkg/jwt"
	"github.com/kindra/kindra-api/internal/pkg/response"
)

type contextKey string

// ProfileIDKey is the context key holding the authenticated profile ID
const ProfileIDKey contextKey = "profile_id"

// Auth returns middleware that validates the bearer JWT and stores the
// acting profile ID in the request context. The session layer is trusted
// for authentication; relationship rules re-authorize every operation.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ProfileIDKey, claims.ProfileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProfileID extracts the acting profile ID from context
func GetProfileID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ProfileIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
