package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rdvline/booking-server/pkg/logging"
)

// APIKey enforces the static X-API-Key shared with the voice agent. An empty
// expected key means auth was never configured: every request is rejected,
// an unset secret must never read as "no auth required". Key material is
// never logged, only lengths.
func APIKey(expected string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if expected == "" || provided != expected {
				logger.Warn("api key rejected",
					"provided_len", len(provided),
					"expected_len", len(expected),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok":    false,
					"error": "unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
