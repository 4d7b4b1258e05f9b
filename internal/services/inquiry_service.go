package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/pkg/utils"
)

const (
	maxTravellers     = 50
	maxMessageLength  = 5000
	inquiryRefPrefix  = "TN-"
	notifyMailTimeout = 30 * time.Second
)

type InquiryInput struct {
	Name       string
	Email      string
	Phone      string
	PackageID  string
	TravelDate string
	Adults     int
	Children   int
	Message    string
}

type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// InquiryService accepts booking inquiries and contact messages from the
// public site and serves them to the admin dashboard.
type InquiryService struct {
	store      InquiryStore
	packages   PackageStore
	mailer     Mailer
	logger     *zap.Logger
	adminEmail string
	events     EventPublisher

	now   func() time.Time
	async func(func())
}

func NewInquiryService(store InquiryStore, packages PackageStore, mailer Mailer, logger *zap.Logger, adminEmail string) *InquiryService {
	return &InquiryService{
		store:      store,
		packages:   packages,
		mailer:     mailer,
		logger:     logger,
		adminEmail: adminEmail,
		now:        func() time.Time { return time.Now().UTC() },
		async:      runAsync,
	}
}

// WithEvents makes the service announce new submissions on p.
func (s *InquiryService) WithEvents(p EventPublisher) *InquiryService {
	s.events = p
	return s
}

// announce publishes event in the background; dashboards are best effort.
func (s *InquiryService) announce(event AdminEvent) {
	if s.events == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish admin event", zap.String("type", event.Type), zap.Error(err))
		}
	})
}

func newReference() string {
	return inquiryRefPrefix + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

func validateContactFields(name, email, phone string, phoneRequired bool) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", models.NewValidationError("Name is required")
	}
	if strings.TrimSpace(email) == "" {
		return "", models.NewValidationError("Email is required")
	}
	normalized, err := requireEmail(email)
	if err != nil {
		return "", err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" && phoneRequired {
		return "", models.NewValidationError("Phone is required")
	}
	if phone != "" {
		if err := utils.ValidatePhone(phone); err != nil {
			return "", validationErr(err)
		}
	}
	return normalized, nil
}

// SubmitInquiry stores a booking inquiry and notifies the admin in the
// background.
func (s *InquiryService) SubmitInquiry(ctx context.Context, in InquiryInput, ipAddress string) (*models.Inquiry, error) {
	email, err := validateContactFields(in.Name, in.Email, in.Phone, true)
	if err != nil {
		return nil, err
	}
	if in.Adults == 0 {
		in.Adults = 1
	}
	if in.Adults < 1 || in.Children < 0 || in.Adults+in.Children > maxTravellers {
		return nil, models.NewValidationError("Please enter a valid number of travellers")
	}
	message := strings.TrimSpace(in.Message)
	if len(message) > maxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}
	if message != "" && LooksLikeSpam(message) {
		return nil, models.NewValidationError("Message was flagged as spam")
	}

	travelDate, err := utils.ParseDate("travelDate", in.TravelDate)
	if err != nil {
		return nil, validationErr(err)
	}
	now := s.now()
	if travelDate != nil && travelDate.Before(now.Truncate(24*time.Hour)) {
		return nil, models.NewValidationError("Travel date cannot be in the past")
	}

	inq := &models.Inquiry{
		ID:         uuid.New().String(),
		Reference:  newReference(),
		CreatedAt:  now,
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		TravelDate: travelDate,
		Adults:     in.Adults,
		Children:   in.Children,
		Message:    message,
		Status:     models.InquiryStatusNew,
		IPAddress:  ipAddress,
	}

	if in.PackageID != "" {
		pid, err := parseObjectID(in.PackageID, "package")
		if err != nil {
			return nil, err
		}
		pkg, err := s.packages.FindByID(ctx, pid)
		if errors.Is(err, models.ErrPackageNotFound) || (err == nil && !pkg.IsActive) {
			return nil, models.NewNotFoundError("Package not found")
		}
		if err != nil {
			return nil, models.NewInternalError("Failed to fetch package", err)
		}
		inq.PackageID = pkg.ID.Hex()
		inq.PackageTitle = pkg.Title
	}

	if err := s.store.CreateInquiry(ctx, inq); err != nil {
		return nil, models.NewInternalError("Failed to submit inquiry", err)
	}

	if s.adminEmail != "" {
		notify := *inq
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyMailTimeout)
			defer cancel()
			if err := s.mailer.SendInquiryNotification(ctx, s.adminEmail, &notify); err != nil {
				s.logger.Warn("failed to notify admin of inquiry", zap.String("reference", notify.Reference), zap.Error(err))
			}
		})
	}
	s.announce(AdminEvent{
		Type:         EventInquiryCreated,
		ID:           inq.ID,
		Reference:    inq.Reference,
		Name:         inq.Name,
		Email:        inq.Email,
		PackageTitle: inq.PackageTitle,
		Timestamp:    inq.CreatedAt,
	})
	return inq, nil
}

func (s *InquiryService) SubmitContact(ctx context.Context, in ContactInput, ipAddress string) (*models.ContactMessage, error) {
	email, err := validateContactFields(in.Name, in.Email, in.Phone, false)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if len(message) < utils.MinMessageLength {
		return nil, models.NewValidationError("Message must be at least 10 characters long")
	}
	if len(message) > maxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}
	if LooksLikeSpam(in.Subject + " " + message) {
		return nil, models.NewValidationError("Message was flagged as spam")
	}

	msg := &models.ContactMessage{
		ID:        uuid.New().String(),
		CreatedAt: s.now(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   message,
		IPAddress: ipAddress,
	}
	if err := s.store.CreateContact(ctx, msg); err != nil {
		return nil, models.NewInternalError("Failed to submit contact form", err)
	}
	s.announce(AdminEvent{
		Type:      EventContactCreated,
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Timestamp: msg.CreatedAt,
	})
	return msg, nil
}

func requireUUID(raw, what string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", models.NewValidationError(what + " ID is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", models.NewValidationError("Invalid " + strings.ToLower(what) + " ID")
	}
	return id.String(), nil
}

type InquiryPage struct {
	Inquiries []models.Inquiry `json:"inquiries"`
	Total     int64            `json:"total"`
	Page      int64            `json:"page"`
	Limit     int64            `json:"limit"`
}

type ContactPage struct {
	Contacts []models.ContactMessage `json:"contacts"`
	Total    int64                   `json:"total"`
	Page     int64                   `json:"page"`
	Limit    int64                   `json:"limit"`
}

func (s *InquiryService) ListInquiries(ctx context.Context, status string, page, limit int64) (*InquiryPage, error) {
	st := models.InquiryStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}
	inquiries, total, err := s.store.ListInquiries(ctx, st, page, limit)
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch inquiries", err)
	}
	page, limit = normalizePage(page, limit)
	return &InquiryPage{Inquiries: inquiries, Total: total, Page: page, Limit: limit}, nil
}

func (s *InquiryService) UpdateInquiryStatus(ctx context.Context, rawID, status string) error {
	id, err := requireUUID(rawID, "Inquiry")
	if err != nil {
		return err
	}
	st := models.InquiryStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return models.NewValidationError("Status must be one of new, contacted, closed")
	}
	err = s.store.UpdateInquiryStatus(ctx, id, st)
	if errors.Is(err, models.ErrInquiryNotFound) {
		return models.NewNotFoundError("Inquiry not found")
	}
	if err != nil {
		return models.NewInternalError("Failed to update inquiry", err)
	}
	return nil
}

func (s *InquiryService) DeleteInquiry(ctx context.Context, rawID string) error {
	id, err := requireUUID(rawID, "Inquiry")
	if err != nil {
		return err
	}
	err = s.store.DeleteInquiry(ctx, id)
	if errors.Is(err, models.ErrInquiryNotFound) {
		return models.NewNotFoundError("Inquiry not found")
	}
	if err != nil {
		return models.NewInternalError("Failed to delete inquiry", err)
	}
	return nil
}

func (s *InquiryService) ListContacts(ctx context.Context, page, limit int64) (*ContactPage, error) {
	contacts, total, err := s.store.ListContacts(ctx, page, limit)
	if err != nil {
		return nil, models.NewInternalError("Failed to fetch contacts", err)
	}
	page, limit = normalizePage(page, limit)
	return &ContactPage{Contacts: contacts, Total: total, Page: page, Limit: limit}, nil
}

func (s *InquiryService) DeleteContact(ctx context.Context, rawID string) error {
	id, err := requireUUID(rawID, "Contact")
	if err != nil {
		return err
	}
	err = s.store.DeleteContact(ctx, id)
	if errors.Is(err, models.ErrContactNotFound) {
		return models.NewNotFoundError("Contact not found")
	}
	if err != nil {
		return models.NewInternalError("Failed to delete contact", err)
	}
	return nil
}
