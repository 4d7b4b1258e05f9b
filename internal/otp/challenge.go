package otp

import (
	"errors"
	"time"
)

// State tags the flow a user's pending challenge belongs to. A user holds at
// most one challenge; issuing a new one replaces the old one.
type State string

const (
	StateNone         State = ""
	StateRegistration State = "registration"
	StateReset        State = "forgot-password"
	StateResetToken   State = "reset-token"
)

var (
	ErrNoChallenge      = errors.New("no active challenge")
	ErrWrongState       = errors.New("challenge belongs to another flow")
	ErrAttemptsExceeded = errors.New("too many failed attempts")
	ErrExpired          = errors.New("challenge has expired")
	ErrMismatch         = errors.New("challenge secret does not match")
)

// Challenge is the pending OTP or reset token stored on a user document. Only
// the digest of the secret is kept.
type Challenge struct {
	State      State     `bson:"state" json:"state"`
	SecretHash string    `bson:"secretHash" json:"-"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
	Attempts   int       `bson:"attempts" json:"attempts"`
	IssuedAt   time.Time `bson:"issuedAt" json:"issuedAt"`
}

// NewCodeChallenge builds a registration or forgot-password challenge for code
// with the attempt counter at zero.
func NewCodeChallenge(state State, code string, now time.Time, ttl time.Duration) Challenge {
	return Challenge{
		State:      state,
		SecretHash: Hash(code),
		ExpiresAt:  ExpiryFor(now, ttl),
		Attempts:   0,
		IssuedAt:   now,
	}
}

// NewResetTokenChallenge replaces a verified forgot-password code with the
// reset token that authorizes the final password change.
func NewResetTokenChallenge(token string, now time.Time, ttl time.Duration) Challenge {
	return Challenge{
		State:      StateResetToken,
		SecretHash: Hash(token),
		ExpiresAt:  now.Add(ttl),
		IssuedAt:   now,
	}
}

// Is reports whether c is an active challenge of the given state.
func (c *Challenge) Is(state State) bool {
	return c != nil && c.State != StateNone && c.State == state
}

// Check validates secret against the challenge. Conditions are evaluated in a
// fixed order: presence, flow, attempt budget, expiry, then the secret itself.
// A maxAttempts below zero disables the attempt budget.
func (c *Challenge) Check(want State, secret string, now time.Time, maxAttempts int) error {
	if c == nil || c.State == StateNone {
		return ErrNoChallenge
	}
	if c.State != want {
		return ErrWrongState
	}
	if maxAttempts >= 0 && ExceededMax(c.Attempts, maxAttempts) {
		return ErrAttemptsExceeded
	}
	if c.SecretHash == "" {
		return ErrNoChallenge
	}
	if IsExpired(c.ExpiresAt, now) {
		return ErrExpired
	}
	if !VerifyHashed(secret, c.SecretHash) {
		return ErrMismatch
	}
	return nil
}

// RemainingAttempts returns how many submissions are left after the current
// attempt count, never negative.
func (c *Challenge) RemainingAttempts(maxAttempts int) int {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if c == nil {
		return maxAttempts
	}
	left := maxAttempts - c.Attempts
	if left < 0 {
		return 0
	}
	return left
}
