package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/middleware"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

const maxBodyBytes = 1 << 20

// AuthAPI is the customer account surface.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (string, *models.User, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type AdminAuthAPI interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
}

type CatalogAPI interface {
	List(ctx context.Context, f models.PackageFilter) (*services.PackagePage, error)
	AdminList(ctx context.Context, f models.PackageFilter) (*services.PackagePage, error)
	GetBySlug(ctx context.Context, slug string) (*models.TravelPackage, error)
	Create(ctx context.Context, in models.PackageInput) (*models.TravelPackage, error)
	Update(ctx context.Context, id string, in models.PackageInput) (*models.TravelPackage, error)
	Delete(ctx context.Context, id string) error
}

type WishlistAPI interface {
	List(ctx context.Context, userID string) ([]services.WishlistEntry, error)
	Add(ctx context.Context, userID, packageID string) error
	Remove(ctx context.Context, userID, packageID string) error
}

type InquiryAPI interface {
	SubmitInquiry(ctx context.Context, in services.InquiryInput, ip string) (*models.Inquiry, error)
	SubmitContact(ctx context.Context, in services.ContactInput, ip string) (*models.ContactMessage, error)
	ListInquiries(ctx context.Context, status string, page, limit int64) (*services.InquiryPage, error)
	UpdateInquiryStatus(ctx context.Context, id, status string) error
	DeleteInquiry(ctx context.Context, id string) error
	ListContacts(ctx context.Context, page, limit int64) (*services.ContactPage, error)
	DeleteContact(ctx context.Context, id string) error
}

// IPUnblocker lifts a rate limit block.
type IPUnblocker interface {
	IsIPBlocked(ctx context.Context, ip string) (bool, error)
	UnblockIP(ctx context.Context, ip string) error
}

var (
	_ AuthAPI      = (*services.AuthService)(nil)
	_ AdminAuthAPI = (*services.AdminAuthService)(nil)
	_ CatalogAPI   = (*services.PackageService)(nil)
	_ WishlistAPI  = (*services.WishlistService)(nil)
	_ InquiryAPI   = (*services.InquiryService)(nil)
	_ IPUnblocker  = (*middleware.RateLimiter)(nil)
	_ EventFeed    = (*services.EventHub)(nil)
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Handler serves the JSON API. Business rules live in the services; handlers
// decode input, call one service method and render the result.
type Handler struct {
	Auth      AuthAPI
	Admin     AdminAuthAPI
	Catalog   CatalogAPI
	Wishlist  WishlistAPI
	Inquiries InquiryAPI
	Unblocker IPUnblocker
	Events    EventFeed
	Checks    map[string]HealthCheck

	// AllowedOrigins may open the admin event stream from a browser.
	AllowedOrigins []string

	// ClientIP extracts the caller address stored with form submissions.
	ClientIP func(r *http.Request) string
	Logger   *zap.Logger
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error             string `json:"error"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
	RemainingSeconds  *int   `json:"remainingSeconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders err as {error, remainingAttempts?, remainingSeconds?}.
// Internal and delivery failures are logged with their cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := models.AsAppError(err)
	status := appErr.Kind.HTTPStatus()

	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(appErr.Kind)),
			zap.String("requestId", chimw.GetReqID(r.Context())),
			zap.Error(err))
	}
	if appErr.RemainingSeconds != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*appErr.RemainingSeconds))
	}
	writeJSON(w, status, errorResponse{
		Error:             appErr.Message,
		RemainingAttempts: appErr.RemainingAttempts,
		RemainingSeconds:  appErr.RemainingSeconds,
	})
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "Request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return false
	}
	return true
}

// queryInt64 parses an optional numeric query parameter; bad values read as 0
// and fall back to the service defaults.
func queryInt64(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Health reports whether every dependency answers within two seconds.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.Logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{"status": overall, "dependencies": deps})
}
