package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

const (
	// UserSessionDuration is 7 days
	UserSessionDuration = 7 * 24 * time.Hour
	// AdminSessionDuration is 24 hours
	AdminSessionDuration = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims is the payload of every bearer token the API hands out.
type SessionClaims struct {
	UserID          string              `json:"userId,omitempty"`
	Email           string              `json:"email"`
	Role            string              `json:"role"`
	Provider        models.AuthProvider `json:"provider,omitempty"`
	IsEmailVerified bool                `json:"isEmailVerified"`
	jwt.RegisteredClaims
}

// SessionManager signs and validates HS256 session tokens. Tokens are checked
// by signature and expiry only; there is no revocation list.
type SessionManager struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

func NewSessionManager(secret string, userTTL, adminTTL time.Duration) *SessionManager {
	if userTTL <= 0 {
		userTTL = UserSessionDuration
	}
	if adminTTL <= 0 {
		adminTTL = AdminSessionDuration
	}
	return &SessionManager{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}
}

// IssueUser creates a customer session for a verified account.
func (m *SessionManager) IssueUser(u *models.User) (string, error) {
	return m.sign(SessionClaims{
		UserID:          u.ID.Hex(),
		Email:           u.Email,
		Role:            models.RoleUser,
		Provider:        u.Provider,
		IsEmailVerified: u.IsEmailVerified,
	}, m.userTTL)
}

// IssueAdmin creates an admin session for the configured admin address.
func (m *SessionManager) IssueAdmin(email string) (string, error) {
	return m.sign(SessionClaims{
		Email:           email,
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	}, m.adminTTL)
}

func (m *SessionManager) sign(claims SessionClaims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if claims.Subject == "" {
		claims.Subject = claims.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns its claims.
func (m *SessionManager) Validate(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
