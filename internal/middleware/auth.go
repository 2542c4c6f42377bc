package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/sessions"
)

type contextKey string

const clientKey contextKey = "client"

// Authenticator resolves a bearer token to a client context.
type Authenticator interface {
	Authenticate(token string) (*sessions.Context, error)
}

// Auth requires a valid bearer token whose client session is still open.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			c, err := auth.Authenticate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), clientKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminKey guards import and generation endpoints. An empty key disables them.
func AdminKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if apiKey == "" || key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid admin API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientFrom returns the client context attached by Auth.
func ClientFrom(ctx context.Context) (*sessions.Context, bool) {
	c, ok := ctx.Value(clientKey).(*sessions.Context)
	return c, ok
}

// WithClient attaches a client context, for handlers exercised without Auth.
func WithClient(ctx context.Context, c *sessions.Context) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
