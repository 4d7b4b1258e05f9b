package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
	"github.com/AnshRaj112/travelnest-backend/pkg/utils"
)

// AuthSettings are the tunables of the customer auth flows.
type AuthSettings struct {
	OTPExpiry     time.Duration
	MaxAttempts   int
	ResetTokenTTL time.Duration
	BcryptCost    int
}

func (s AuthSettings) withDefaults() AuthSettings {
	if s.OTPExpiry <= 0 {
		s.OTPExpiry = otp.DefaultExpiry
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = otp.DefaultMaxAttempts
	}
	if s.ResetTokenTTL <= 0 {
		s.ResetTokenTTL = 15 * time.Minute
	}
	if s.BcryptCost == 0 {
		s.BcryptCost = utils.DefaultPasswordCost
	}
	return s
}

// AuthService runs registration, email verification, resend, login and the
// three step password reset. Each step reads the user once and applies at
// most one document write.
type AuthService struct {
	users    UserStore
	mailer   Mailer
	cooldown Cooldown
	sessions *SessionManager
	logger   *zap.Logger
	settings AuthSettings

	now           func() time.Time
	generateOTP   func() (string, error)
	newResetToken func() (string, error)
	async         func(func())
}

func NewAuthService(users UserStore, mailer Mailer, cooldown Cooldown, sessions *SessionManager, logger *zap.Logger, settings AuthSettings) *AuthService {
	return &AuthService{
		users:         users,
		mailer:        mailer,
		cooldown:      cooldown,
		sessions:      sessions,
		logger:        logger,
		settings:      settings.withDefaults(),
		now:           func() time.Time { return time.Now().UTC() },
		generateOTP:   otp.Generate,
		newResetToken: otp.NewResetToken,
		async:         runAsync,
	}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	DateOfBirth string
}

type ResetPasswordInput struct {
	Email           string
	ResetToken      string
	NewPassword     string
	ConfirmPassword string
}

// validationErr converts a utils.ValidationError into an AppError.
func validationErr(err error) error {
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		return models.NewValidationError(verr.Message)
	}
	return err
}

func requireEmail(raw string) (string, error) {
	email := utils.NormalizeEmail(raw)
	if err := utils.ValidateEmail(email); err != nil {
		return "", validationErr(err)
	}
	return email, nil
}

func (s *AuthService) lookup(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to look up user", err)
	}
	return user, nil
}

func (s *AuthService) armCooldown(ctx context.Context, email string) {
	if s.cooldown == nil {
		return
	}
	if err := s.cooldown.Arm(ctx, email); err != nil {
		s.logger.Warn("failed to arm resend cooldown", zap.String("email", email), zap.Error(err))
	}
}

// Register creates an unverified account, or refreshes a pending one, and
// emails a verification code. It returns the normalized email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return "", models.NewValidationError("Name, email and password are required")
	}
	email, err := requireEmail(in.Email)
	if err != nil {
		return "", err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return "", validationErr(err)
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" {
		if err := utils.ValidatePhone(phone); err != nil {
			return "", validationErr(err)
		}
	}
	dob, err := utils.ParseDate("dateOfBirth", in.DateOfBirth)
	if err != nil {
		return "", validationErr(err)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return "", models.NewInternalError("Failed to look up user", err)
	}

	now := s.now()
	if existing != nil {
		if existing.IsEmailVerified {
			return "", models.NewStateConflictError("User already exists and is verified")
		}
		ch := existing.Challenge
		if ch.Is(otp.StateRegistration) && otp.ExceededMax(ch.Attempts, s.settings.MaxAttempts) && !otp.IsExpired(ch.ExpiresAt, now) {
			return "", models.NewRateLimitError("Too many failed attempts. Please request a new code").WithRemainingAttempts(0)
		}
	}

	passwordHash, err := utils.HashPassword(in.Password, s.settings.BcryptCost)
	if err != nil {
		return "", models.NewInternalError("Failed to hash password", err)
	}
	code, err := s.generateOTP()
	if err != nil {
		return "", models.NewInternalError("Failed to generate OTP", err)
	}
	ch := otp.NewCodeChallenge(otp.StateRegistration, code, now, s.settings.OTPExpiry)

	if existing != nil {
		upd := PendingUpdate{Name: name, PasswordHash: passwordHash, Phone: phone, DateOfBirth: dob}
		if err := s.users.RefreshPending(ctx, existing.ID, upd, ch); err != nil {
			return "", models.NewInternalError("Failed to update registration", err)
		}
		if err := s.mailer.SendOTP(ctx, email, code, otp.StateRegistration, s.settings.OTPExpiry); err != nil {
			s.logger.Error("failed to resend registration otp", zap.String("email", email), zap.Error(err))
			return "", models.NewDeliveryError("Failed to send verification email", err)
		}
		s.armCooldown(ctx, email)
		return email, nil
	}

	user := &models.User{
		Name:            name,
		Email:           email,
		Phone:           phone,
		DateOfBirth:     dob,
		PasswordHash:    passwordHash,
		Provider:        models.ProviderEmail,
		IsEmailVerified: false,
		Challenge:       &ch,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return "", models.NewStateConflictError("An account with this email already exists")
		}
		return "", models.NewInternalError("Failed to create user", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code, otp.StateRegistration, s.settings.OTPExpiry); err != nil {
		s.logger.Error("failed to send registration otp, removing account", zap.String("email", email), zap.Error(err))
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("failed to remove unverifiable account", zap.String("email", email), zap.Error(delErr))
		}
		return "", models.NewDeliveryError("Failed to send verification email", err)
	}
	s.armCooldown(ctx, email)
	return email, nil
}

// checkCode applies ch.Check and performs the bookkeeping each outcome needs:
// counting a mismatch, or dropping an expired challenge.
func (s *AuthService) checkCode(ctx context.Context, user *models.User, state otp.State, code string, noChallengeMsg string) error {
	err := user.Challenge.Check(state, code, s.now(), s.settings.MaxAttempts)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otp.ErrNoChallenge), errors.Is(err, otp.ErrWrongState):
		return models.NewStateConflictError(noChallengeMsg)
	case errors.Is(err, otp.ErrAttemptsExceeded):
		return models.NewRateLimitError("Too many failed attempts. Please request a new code").WithRemainingAttempts(0)
	case errors.Is(err, otp.ErrExpired):
		if clearErr := s.users.ClearChallenge(ctx, user.ID); clearErr != nil {
			return models.NewInternalError("Failed to clear expired OTP", clearErr)
		}
		return models.NewValidationError("OTP has expired. Please request a new one")
	case errors.Is(err, otp.ErrMismatch):
		if incErr := s.users.IncrementAttempts(ctx, user.ID); incErr != nil {
			return models.NewInternalError("Failed to record attempt", incErr)
		}
		remaining := s.settings.MaxAttempts - (user.Challenge.Attempts + 1)
		if remaining < 0 {
			remaining = 0
		}
		return models.NewValidationError("Invalid OTP").WithRemainingAttempts(remaining)
	default:
		return models.NewInternalError("Failed to verify OTP", err)
	}
}

// VerifyEmail checks a registration code. On success the account is marked
// verified, a session token is issued and a welcome email is sent in the
// background.
func (s *AuthService) VerifyEmail(ctx context.Context, rawEmail, code string) (string, *models.User, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(rawEmail) == "" || code == "" {
		return "", nil, models.NewValidationError("Email and OTP are required")
	}
	if !otp.IsValidFormat(code) {
		return "", nil, models.NewValidationError("OTP must be a 6-digit code")
	}
	email, err := requireEmail(rawEmail)
	if err != nil {
		return "", nil, err
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user.IsEmailVerified {
		return "", nil, models.NewStateConflictError("Email is already verified")
	}
	if err := s.checkCode(ctx, user, otp.StateRegistration, code, "No pending verification. Please register again or request a new code"); err != nil {
		return "", nil, err
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return "", nil, models.NewInternalError("Failed to verify email", err)
	}
	user.IsEmailVerified = true
	user.Challenge = nil

	token, err := s.sessions.IssueUser(user)
	if err != nil {
		return "", nil, models.NewInternalError("Failed to create session", err)
	}

	to, name := user.Email, user.Name
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendWelcome(ctx, to, name); err != nil {
			s.logger.Warn("failed to send welcome email", zap.String("email", to), zap.Error(err))
		}
	})

	return token, user, nil
}

// ResendOTP issues a fresh registration code with a zeroed attempt counter,
// at most once per cooldown window.
func (s *AuthService) ResendOTP(ctx context.Context, rawEmail string) (string, error) {
	if strings.TrimSpace(rawEmail) == "" {
		return "", models.NewValidationError("Email is required")
	}
	email, err := requireEmail(rawEmail)
	if err != nil {
		return "", err
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if user.IsEmailVerified {
		return "", models.NewStateConflictError("Email is already verified")
	}

	if s.cooldown != nil {
		wait, err := s.cooldown.Remaining(ctx, email)
		if err != nil {
			s.logger.Warn("resend cooldown unavailable", zap.String("email", email), zap.Error(err))
		} else if wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			return "", models.NewRateLimitError("Please wait before requesting a new code").WithRemainingSeconds(secs)
		}
	}

	code, err := s.generateOTP()
	if err != nil {
		return "", models.NewInternalError("Failed to generate OTP", err)
	}
	ch := otp.NewCodeChallenge(otp.StateRegistration, code, s.now(), s.settings.OTPExpiry)
	if err := s.users.SetChallenge(ctx, user.ID, ch); err != nil {
		return "", models.NewInternalError("Failed to store OTP", err)
	}
	if err := s.mailer.SendOTP(ctx, email, code, otp.StateRegistration, s.settings.OTPExpiry); err != nil {
		s.logger.Error("failed to resend otp", zap.String("email", email), zap.Error(err))
		return "", models.NewDeliveryError("Failed to send verification email", err)
	}
	s.armCooldown(ctx, email)
	return email, nil
}

// ForgotPassword starts a reset by emailing a code to an existing account.
func (s *AuthService) ForgotPassword(ctx context.Context, rawEmail string) (string, error) {
	if strings.TrimSpace(rawEmail) == "" {
		return "", models.NewValidationError("Email is required")
	}
	email, err := requireEmail(rawEmail)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", models.NewNotFoundError("No account found with this email")
	}
	if err != nil {
		return "", models.NewInternalError("Failed to look up user", err)
	}

	code, err := s.generateOTP()
	if err != nil {
		return "", models.NewInternalError("Failed to generate OTP", err)
	}
	ch := otp.NewCodeChallenge(otp.StateReset, code, s.now(), s.settings.OTPExpiry)
	if err := s.users.SetChallenge(ctx, user.ID, ch); err != nil {
		return "", models.NewInternalError("Failed to store OTP", err)
	}
	if err := s.mailer.SendOTP(ctx, email, code, otp.StateReset, s.settings.OTPExpiry); err != nil {
		s.logger.Error("failed to send reset otp", zap.String("email", email), zap.Error(err))
		if clearErr := s.users.ClearChallenge(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to clear undelivered reset otp", zap.String("email", email), zap.Error(clearErr))
		}
		return "", models.NewDeliveryError("Failed to send password reset email", err)
	}
	return email, nil
}

// VerifyResetOTP exchanges a valid reset code for a one-time reset token.
func (s *AuthService) VerifyResetOTP(ctx context.Context, rawEmail, code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(rawEmail) == "" || code == "" {
		return "", models.NewValidationError("Email and OTP are required")
	}
	if !otp.IsValidFormat(code) {
		return "", models.NewValidationError("OTP must be a 6-digit code")
	}
	email, err := requireEmail(rawEmail)
	if err != nil {
		return "", err
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.checkCode(ctx, user, otp.StateReset, code, "No active password reset request. Please request a new code"); err != nil {
		return "", err
	}

	token, err := s.newResetToken()
	if err != nil {
		return "", models.NewInternalError("Failed to generate reset token", err)
	}
	if err := s.users.SetChallenge(ctx, user.ID, otp.NewResetTokenChallenge(token, s.now(), s.settings.ResetTokenTTL)); err != nil {
		return "", models.NewInternalError("Failed to store reset token", err)
	}
	return token, nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and consumes the token.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	token := strings.TrimSpace(in.ResetToken)
	if strings.TrimSpace(in.Email) == "" || token == "" || in.NewPassword == "" {
		return models.NewValidationError("Email, reset token and new password are required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return models.NewValidationError("Passwords do not match")
	}
	if err := utils.ValidatePassword(in.NewPassword); err != nil {
		return validationErr(err)
	}
	email, err := requireEmail(in.Email)
	if err != nil {
		return err
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}

	// reset tokens carry no attempt budget
	switch err := user.Challenge.Check(otp.StateResetToken, token, s.now(), -1); {
	case err == nil:
	case errors.Is(err, otp.ErrExpired):
		if clearErr := s.users.ClearChallenge(ctx, user.ID); clearErr != nil {
			return models.NewInternalError("Failed to clear expired reset token", clearErr)
		}
		return models.NewAuthError("Reset token has expired. Please start again")
	default:
		return models.NewAuthError("Invalid reset token")
	}

	hash, err := utils.HashPassword(in.NewPassword, s.settings.BcryptCost)
	if err != nil {
		return models.NewInternalError("Failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return models.NewInternalError("Failed to update password", err)
	}
	return nil
}

// Login authenticates a verified email/password account.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (string, *models.User, error) {
	if strings.TrimSpace(rawEmail) == "" || password == "" {
		return "", nil, models.NewValidationError("Email and password are required")
	}
	email := utils.NormalizeEmail(rawEmail)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", nil, models.NewAuthError("Invalid email or password")
	}
	if err != nil {
		return "", nil, models.NewInternalError("Failed to look up user", err)
	}
	if user.PasswordHash == "" {
		return "", nil, models.NewStateConflictError("This account uses Google sign-in")
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, models.NewInternalError("Failed to verify password", err)
	}
	if !ok {
		return "", nil, models.NewAuthError("Invalid email or password")
	}
	if !user.IsEmailVerified {
		return "", nil, models.NewStateConflictError("Please verify your email before logging in")
	}

	token, err := s.sessions.IssueUser(user)
	if err != nil {
		return "", nil, models.NewInternalError("Failed to create session", err)
	}
	return token, user, nil
}

// CurrentUser loads the account behind a session's user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.NewAuthError("Invalid session")
	}
	user, err := s.users.FindByID(ctx, oid)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to load user", err)
	}
	return user, nil
}
