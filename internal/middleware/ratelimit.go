package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 100
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = time.Hour
)

// RateLimiter counts requests per IP in Redis so every instance shares the
// same window. An IP that exceeds the window is blocked for BlockedIPDuration.
type RateLimiter struct {
	client *redis.Client
	ip     IPFunc
	logger *zap.Logger

	window      time.Duration
	maxRequests int
	blockFor    time.Duration
}

func NewRateLimiter(client *redis.Client, ip IPFunc, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:      client,
		ip:          ip,
		logger:      logger,
		window:      RateLimitWindow,
		maxRequests: RateLimitMaxRequests,
		blockFor:    BlockedIPDuration,
	}
}

// Middleware provides rate limiting with IP blocking. Redis failures let the
// request through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipAddress := l.ip(r)
		ctx := r.Context()

		blocked, err := l.IsIPBlocked(ctx, ipAddress)
		if err == nil && blocked {
			writeJSONError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ipAddress
		count, err := l.client.Incr(ctx, key).Result()
		if err == nil && count == 1 {
			err = l.client.Expire(ctx, key, l.window).Err()
		}
		if err != nil {
			l.logger.Warn("rate limit check failed", zap.String("ip", ipAddress), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(l.maxRequests) {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ipAddress, "1", l.blockFor).Err(); err != nil {
				l.logger.Warn("failed to block ip", zap.String("ip", ipAddress), zap.Error(err))
			} else {
				l.logger.Info("ip blocked for excessive requests", zap.String("ip", ipAddress), zap.Int64("count", count))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.maxRequests)-count, 10))
		next.ServeHTTP(w, r)
	})
}

// UnblockIP removes an IP from the blocked list and resets its counter (admin function)
func (l *RateLimiter) UnblockIP(ctx context.Context, ipAddress string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ipAddress, RateLimitKeyPrefix+ipAddress).Err()
}

// IsIPBlocked checks if an IP is currently blocked
func (l *RateLimiter) IsIPBlocked(ctx context.Context, ipAddress string) (bool, error) {
	count, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ipAddress).Result()
	return count > 0, err
}
