package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
	"github.com/AnshRaj112/travelnest-backend/pkg/utils"
)

// AdminAuthService signs the single admin in with an emailed code. Codes are
// single use, expire after ttl and have no attempt limit.
type AdminAuthService struct {
	adminEmail string
	codes      AdminOTPStore
	mailer     Mailer
	sessions   *SessionManager
	logger     *zap.Logger
	ttl        time.Duration

	now         func() time.Time
	generateOTP func() (string, error)
}

func NewAdminAuthService(adminEmail string, codes AdminOTPStore, mailer Mailer, sessions *SessionManager, logger *zap.Logger, ttl time.Duration) *AdminAuthService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AdminAuthService{
		adminEmail:  utils.NormalizeEmail(adminEmail),
		codes:       codes,
		mailer:      mailer,
		sessions:    sessions,
		logger:      logger,
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
		generateOTP: otp.Generate,
	}
}

func (s *AdminAuthService) requireAdmin(rawEmail string) (string, error) {
	if strings.TrimSpace(rawEmail) == "" {
		return "", models.NewValidationError("Email is required")
	}
	email := utils.NormalizeEmail(rawEmail)
	if s.adminEmail == "" || email != s.adminEmail {
		return "", models.NewAuthError("Unauthorized email address")
	}
	return email, nil
}

// SendOTP emails a fresh code to the admin, replacing any pending one.
func (s *AdminAuthService) SendOTP(ctx context.Context, rawEmail string) error {
	email, err := s.requireAdmin(rawEmail)
	if err != nil {
		return err
	}

	code, err := s.generateOTP()
	if err != nil {
		return models.NewInternalError("Failed to generate OTP", err)
	}
	now := s.now()
	rec := models.AdminOTP{
		Email:     email,
		CodeHash:  otp.Hash(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.codes.Put(ctx, rec); err != nil {
		return models.NewInternalError("Failed to store OTP", err)
	}

	if err := s.mailer.SendAdminOTP(ctx, email, code, s.ttl); err != nil {
		s.logger.Error("failed to send admin otp", zap.Error(err))
		if delErr := s.codes.Delete(ctx, email); delErr != nil {
			s.logger.Error("failed to drop undelivered admin otp", zap.Error(delErr))
		}
		return models.NewDeliveryError("Failed to send OTP email", err)
	}
	return nil
}

// VerifyOTP consumes the admin's code and returns an admin session token.
func (s *AdminAuthService) VerifyOTP(ctx context.Context, rawEmail, code string) (string, error) {
	email, err := s.requireAdmin(rawEmail)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if !otp.IsValidFormat(code) {
		return "", models.NewValidationError("OTP must be a 6-digit code")
	}

	rec, err := s.codes.Get(ctx, email)
	if errors.Is(err, models.ErrAdminOTPNotFound) {
		return "", models.NewStateConflictError("No OTP requested. Please request a new one")
	}
	if err != nil {
		return "", models.NewInternalError("Failed to load OTP", err)
	}

	if otp.IsExpired(rec.ExpiresAt, s.now()) {
		if delErr := s.codes.Delete(ctx, email); delErr != nil {
			s.logger.Warn("failed to drop expired admin otp", zap.Error(delErr))
		}
		return "", models.NewValidationError("OTP has expired. Please request a new one")
	}
	if !otp.VerifyHashed(code, rec.CodeHash) {
		return "", models.NewAuthError("Invalid OTP")
	}

	// Consume is conditional on the hash so a code can only be redeemed once.
	if err := s.codes.Consume(ctx, email, rec.CodeHash); err != nil {
		if errors.Is(err, models.ErrAdminOTPNotFound) {
			return "", models.NewAuthError("Invalid OTP")
		}
		return "", models.NewInternalError("Failed to consume OTP", err)
	}

	token, err := s.sessions.IssueAdmin(email)
	if err != nil {
		return "", models.NewInternalError("Failed to create session", err)
	}
	return token, nil
}
