package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallengeCheck(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	fresh := NewCodeChallenge(StateRegistration, "123456", now, 10*time.Minute)

	saturated := fresh
	saturated.Attempts = 3

	tests := []struct {
		name   string
		c      *Challenge
		want   State
		secret string
		at     time.Time
		err    error
	}{
		{"nil challenge", nil, StateRegistration, "123456", now, ErrNoChallenge},
		{"empty state", &Challenge{}, StateRegistration, "123456", now, ErrNoChallenge},
		{"wrong flow", &fresh, StateReset, "123456", now, ErrWrongState},
		{"attempts exhausted beats correct code", &saturated, StateRegistration, "123456", now, ErrAttemptsExceeded},
		{"expired", &fresh, StateRegistration, "123456", now.Add(10*time.Minute + time.Millisecond), ErrExpired},
		{"just before expiry", &fresh, StateRegistration, "123456", now.Add(10*time.Minute - time.Millisecond), nil},
		{"mismatch", &fresh, StateRegistration, "654321", now, ErrMismatch},
		{"match", &fresh, StateRegistration, "123456", now, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Check(tc.want, tc.secret, tc.at, 3)
			assert.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChallengeCheck_UnlimitedAttempts(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewResetTokenChallenge("tok", now, 15*time.Minute)
	c.Attempts = 100

	assert.NoError(t, c.Check(StateResetToken, "tok", now, -1))
	assert.ErrorIs(t, c.Check(StateResetToken, "other", now, -1), ErrMismatch)
}

func TestNewCodeChallenge_StoresDigestOnly(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewCodeChallenge(StateReset, "777777", now, 0)

	assert.Equal(t, StateReset, c.State)
	assert.NotEqual(t, "777777", c.SecretHash)
	assert.Equal(t, Hash("777777"), c.SecretHash)
	assert.Equal(t, 0, c.Attempts)
	assert.Equal(t, now.Add(DefaultExpiry), c.ExpiresAt)
}

func TestChallengeIsAndRemaining(t *testing.T) {
	t.Parallel()

	var none *Challenge
	assert.False(t, none.Is(StateRegistration))
	assert.Equal(t, 3, none.RemainingAttempts(3))

	c := NewCodeChallenge(StateRegistration, "111111", time.Now(), time.Minute)
	assert.True(t, c.Is(StateRegistration))
	assert.False(t, c.Is(StateReset))

	c.Attempts = 2
	assert.Equal(t, 1, c.RemainingAttempts(3))
	c.Attempts = 5
	assert.Equal(t, 0, c.RemainingAttempts(3))
}
