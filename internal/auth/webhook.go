package auth

import (
	"crypto/subtle"
	"net/http"
)

// WebhookKeyHeader is the header the scraping pipeline sends its shared
// secret in.
const WebhookKeyHeader = "x-api-key"

// RequireWebhookKey is a middleware protecting the tender ingestion endpoint.
//
// The external pipeline is not a browser — it has no session. Instead it
// authenticates with a static shared key carried in the x-api-key header.
// A missing or wrong key gets a bare 401, with no hint about which it was.
//
// CONSTANT-TIME COMPARISON:
// subtle.ConstantTimeCompare takes the same time whether the first byte or
// the last byte differs. A plain == or bytes.Equal short-circuits on the
// first mismatch, which leaks how much of the key a caller guessed right
// through response timing.
func RequireWebhookKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(WebhookKeyHeader)
			if apiKey == "" || !secureEqual(provided, apiKey) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"invalid API key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// secureEqual reports whether two strings are equal in constant time.
// ConstantTimeCompare returns early on length mismatch, but key length is
// not a secret here — only its contents.
func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
