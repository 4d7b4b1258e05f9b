package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

func TestSessionManager_UserToken(t *testing.T) {
	m := NewSessionManager("secret", 0, 0)
	user := &models.User{
		ID:              primitive.NewObjectID(),
		Email:           "a@x.com",
		Provider:        models.ProviderEmail,
		IsEmailVerified: true,
	}

	token, err := m.IssueUser(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.True(t, claims.IsEmailVerified)
	assert.WithinDuration(t, time.Now().Add(UserSessionDuration), claims.ExpiresAt.Time, time.Minute)
}

func TestSessionManager_Rejects(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, time.Hour)
	token, err := m.IssueAdmin("admin@x.com")
	require.NoError(t, err)

	other := NewSessionManager("other-secret", time.Hour, time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signature")

	_, err = m.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestSessionManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, time.Hour)

	claims := SessionClaims{Email: "admin@x.com", Role: models.RoleAdmin}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
