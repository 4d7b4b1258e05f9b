package services

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResendCooldownKeyPrefix is the Redis key prefix for OTP resend cooldowns.
const ResendCooldownKeyPrefix = "otp_resend:"

// ResendCooldown throttles how often a code may be re-sent to one address.
type ResendCooldown struct {
	client *redis.Client
	window time.Duration
}

func NewResendCooldown(client *redis.Client, window time.Duration) *ResendCooldown {
	if window <= 0 {
		window = time.Minute
	}
	return &ResendCooldown{client: client, window: window}
}

func cooldownKey(email string) string {
	return ResendCooldownKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Arm starts the cooldown window for email, replacing any running one.
func (c *ResendCooldown) Arm(ctx context.Context, email string) error {
	return c.client.Set(ctx, cooldownKey(email), time.Now().UTC().Unix(), c.window).Err()
}

// Remaining returns how long until email may request another code. Zero
// means a resend is allowed now.
func (c *ResendCooldown) Remaining(ctx context.Context, email string) (time.Duration, error) {
	ttl, err := c.client.PTTL(ctx, cooldownKey(email)).Result()
	if err != nil {
		return 0, err
	}
	// -2: no key, -1: key without expiry (never written by Arm)
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
