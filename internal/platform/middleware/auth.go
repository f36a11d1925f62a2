package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	PartyID string
	JTI     string
}

type contextKeyPartyID struct{}

// GetPartyID retrieves the authenticated requesting party ID from the context.
func GetPartyID(ctx context.Context) string {
	partyID, ok := ctx.Value(contextKeyPartyID{}).(string)
	if !ok {
		return ""
	}
	return partyID
}

// WithPartyID returns a context carrying the given party ID. Exported for
// handler tests that bypass the middleware.
func WithPartyID(ctx context.Context, partyID string) context.Context {
	return context.WithValue(ctx, contextKeyPartyID{}, partyID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated party ID in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPartyID(ctx, claims.PartyID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
