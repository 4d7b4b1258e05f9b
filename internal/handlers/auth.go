package handlers

import (
	"net/http"

	"github.com/AnshRaj112/travelnest-backend/internal/middleware"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
	"github.com/AnshRaj112/travelnest-backend/pkg/utils"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	ResetToken      string `json:"resetToken"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// SessionResponse is returned by every call that signs a customer in.
type SessionResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

type resetTokenResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
	Email      string `json:"email"`
}

// Register creates or refreshes an unverified account and emails a code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	email, err := h.Auth.Register(r.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, emailResponse{
		Message: "Registration successful. Please check your email for the verification code.",
		Email:   email,
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, user, err := h.Auth.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Message: "Email verified successfully",
		Token:   token,
		User:    user.Public(),
	})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}
	email, err := h.Auth.ResendOTP(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Message: "A new verification code has been sent", Email: email})
}

// ForgotPassword starts the three-step reset by emailing a code.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}
	email, err := h.Auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Message: "Password reset code sent to your email", Email: email})
}

// VerifyResetOTP trades a valid reset code for a short-lived reset token.
func (h *Handler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.Auth.VerifyResetOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetTokenResponse{
		Message:    "Code verified. You can now set a new password",
		ResetToken: token,
		Email:      utils.NormalizeEmail(req.Email),
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.Auth.ResetPassword(r.Context(), services.ResetPasswordInput{
		Email:           req.Email,
		ResetToken:      req.ResetToken,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successful. You can now log in"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, user, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Message: "Login successful", Token: token, User: user.Public()})
}

// Me returns the signed-in customer. Mounted behind RequireUser.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, r, models.NewAuthError("Authentication required"))
		return
	}
	user, err := h.Auth.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.PublicUser{"user": user.Public()})
}
