package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/frost-bit-star/stackverify-bot/internal/directory"
)

type contextKey string

const callerNumberKey contextKey = "caller_number"

// requireAPIKey gates messaging and OTP endpoints on the x-api-key
// header and stashes the owning phone number in the request context.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("x-api-key"))
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing_api_key", "API key required in x-api-key header")
			return
		}

		number, err := s.registry.Authenticate(r.Context(), key)
		if errors.Is(err, directory.ErrNotFound) {
			respondError(w, http.StatusForbidden, "invalid_api_key", "invalid API key")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "registry_error", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), callerNumberKey, number)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerNumber(r *http.Request) string {
	number, _ := r.Context().Value(callerNumberKey).(string)
	return number
}
