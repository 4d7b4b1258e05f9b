package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// Public form rate limit: per-IP, different limits for signed-in vs anonymous
// visitors. Auth: 10 req/min, burst 5. Anonymous: 3 req/min, burst 3.

const (
	formAuthRPS   = 10.0 / 60
	formAuthBurst = 5
	formAnonRPS   = 3.0 / 60
	formAnonBurst = 3
)

var formPaths = map[string]bool{
	"/api/inquiries": true,
	"/api/contact":   true,
}

// hasBearer checks for a Bearer token in the Authorization header. The token
// is not validated here; it only selects the more generous bucket.
func hasBearer(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && len(strings.TrimPrefix(auth, "Bearer ")) > 0
}

// FormRateLimit applies rate limiting only to POSTs of the public inquiry and
// contact forms. Returns 429 with headers when exceeded.
func FormRateLimit(ip IPFunc) func(http.Handler) http.Handler {
	authLimiters := newLimiterSet(rate.Limit(formAuthRPS), formAuthBurst)
	anonLimiters := newLimiterSet(rate.Limit(formAnonRPS), formAnonBurst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !formPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			limiters, limit := anonLimiters, formAnonBurst
			if hasBearer(r) {
				limiters, limit = authLimiters, formAuthBurst
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))

			if !limiters.allow(ip(r)) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeJSONError(w, http.StatusTooManyRequests, "Too many submissions. Please try again in a few minutes.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
