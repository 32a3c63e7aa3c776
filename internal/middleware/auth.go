package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/logging"
)

// Authenticator resolves a bearer access token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireAuth rejects requests lacking a valid bearer access token and stores
// the resolved user id on the request context for downstream handlers.
func RequireAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			if authenticator == nil {
				logger.Error("authenticator unavailable")
				writeAuthError(w, http.StatusInternalServerError, "authentication services unavailable")
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.Warn("authentication failed", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(ctx, userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
