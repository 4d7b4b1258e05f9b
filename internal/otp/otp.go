// Package otp generates and checks the 6-digit email codes used by the
// registration, password reset and admin sign-in flows.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const (
	// Length is the number of digits in a code.
	Length = 6
	// DefaultExpiry is how long a code stays valid when no TTL is configured.
	DefaultExpiry = 10 * time.Minute
	// DefaultMaxAttempts is the number of wrong submissions allowed per code.
	DefaultMaxAttempts = 3

	minCode = 100000
	maxCode = 999999
)

// Generate returns a uniformly random code in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+minCode), nil
}

// ExpiryFor returns the expiry timestamp for a code issued at now.
func ExpiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	return now.Add(ttl)
}

// IsExpired reports whether now is strictly after expiry.
func IsExpired(expiry, now time.Time) bool {
	return now.After(expiry)
}

// IsValidFormat reports whether code is exactly six ASCII digits.
func IsValidFormat(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Hash returns the hex SHA-256 digest of a code or token.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyHashed recomputes the digest of input and compares it with storedHash
// in constant time.
func VerifyHashed(input, storedHash string) bool {
	computed := Hash(input)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ExceededMax reports whether attempts has reached the limit.
func ExceededMax(attempts, max int) bool {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	return attempts >= max
}

// NewResetToken returns 32 random bytes encoded as 64 hex characters.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
