package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/travelnest-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// IPFunc extracts the client address used as a rate limit key.
type IPFunc func(r *http.Request) string

// ClientIP returns the address extractor for the deployment: proxy headers are
// only trusted when the app sits behind a proxy that sets them.
func ClientIP(trustProxy bool) IPFunc {
	if trustProxy {
		return clientip.FromProxy
	}
	return clientip.RealClientIP
}

// writeJSONError renders the API error shape from inside middleware.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerReferrerPolicy, "strict-origin-when-cross-origin")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.travelnest.in).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- per-key token buckets ---

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// limiterSet hands out one token bucket per key and forgets keys that have
// been idle for limiterTTL.
type limiterSet struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
	cleanup sync.Once
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.cleanup.Do(func() { go s.sweepEvery(limiterCleanupInterval) })

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1)
}

func (s *limiterSet) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(s.entries, key)
		}
	}
}

func (s *limiterSet) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.sweep()
	}
}

// --- global rate limiting (per-IP, 5/s, burst 20) ---

const (
	globalRateLimitRPS   = 5
	globalRateLimitBurst = 20
)

// GlobalRateLimit limits each IP to 5 req/s, burst 20. Returns 429 when exceeded.
func GlobalRateLimit(ip IPFunc) func(http.Handler) http.Handler {
	limiters := newLimiterSet(rate.Limit(globalRateLimitRPS), globalRateLimitBurst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(ip(r)) {
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- OTP and sign-in route rate limiting (1 req/10s, burst 5) ---

const (
	authRateLimitEvery = 10 * time.Second
	authRateLimitBurst = 5
)

// authPaths are the endpoints that send mail or check a secret.
var authPaths = map[string]bool{
	"/api/auth/register":         true,
	"/api/auth/verify-otp":       true,
	"/api/auth/resend-otp":       true,
	"/api/auth/forgot-password":  true,
	"/api/auth/verify-reset-otp": true,
	"/api/auth/reset-password":   true,
	"/api/auth/login":            true,
	"/api/auth/send-otp":         true,
	"/api/auth/verify-admin-otp": true,
}

// AuthRateLimit applies a stricter limit to OTP and sign-in routes only. Use
// after GlobalRateLimit.
func AuthRateLimit(ip IPFunc) func(http.Handler) http.Handler {
	limiters := newLimiterSet(rate.Every(authRateLimitEvery), authRateLimitBurst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !authPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !limiters.allow(ip(r)) {
				w.Header().Set("Retry-After", "10")
				writeJSONError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit.
func ProductionSecurity(allowedHost string, ip IPFunc) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit(ip),
	}
}
