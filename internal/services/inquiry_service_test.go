package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

type inquiryFixture struct {
	svc      *InquiryService
	store    *MockInquiryStore
	packages *MockPackageStore
	mailer   *MockMailer
	saved    []*models.Inquiry
	contacts []*models.ContactMessage
}

func newInquiryFixture(t *testing.T) *inquiryFixture {
	t.Helper()

	f := &inquiryFixture{mailer: &MockMailer{}, packages: &MockPackageStore{}}
	f.store = &MockInquiryStore{
		CreateInquiryFunc: func(ctx context.Context, inq *models.Inquiry) error {
			f.saved = append(f.saved, inq)
			return nil
		},
		CreateContactFunc: func(ctx context.Context, msg *models.ContactMessage) error {
			f.contacts = append(f.contacts, msg)
			return nil
		},
	}
	f.svc = NewInquiryService(f.store, f.packages, f.mailer, zap.NewNop(), "admin@travelnest.in")
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	f.svc.async = inline
	return f
}

func validInquiry() InquiryInput {
	return InquiryInput{
		Name:       " Priya ",
		Email:      "Priya@Example.com",
		Phone:      "+91 98765 43210",
		TravelDate: "2026-04-10",
		Adults:     2,
		Children:   1,
		Message:    "Looking for a family trip in April.",
	}
}

func TestSubmitInquiry(t *testing.T) {
	f := newInquiryFixture(t)
	pid := primitive.NewObjectID()
	f.packages.FindByIDFunc = func(ctx context.Context, id primitive.ObjectID) (*models.TravelPackage, error) {
		return &models.TravelPackage{ID: id, Title: "Kerala Backwaters", IsActive: true}, nil
	}

	in := validInquiry()
	in.PackageID = pid.Hex()
	inq, err := f.svc.SubmitInquiry(context.Background(), in, "203.0.113.7")
	require.NoError(t, err)

	require.Len(t, f.saved, 1)
	assert.Regexp(t, `^TN-[0-9A-F]{8}$`, inq.Reference)
	assert.Equal(t, "Priya", inq.Name)
	assert.Equal(t, "priya@example.com", inq.Email)
	assert.Equal(t, pid.Hex(), inq.PackageID)
	assert.Equal(t, "Kerala Backwaters", inq.PackageTitle)
	assert.Equal(t, models.InquiryStatusNew, inq.Status)
	assert.Equal(t, "203.0.113.7", inq.IPAddress)
	require.NotNil(t, inq.TravelDate)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), *inq.TravelDate)

	require.Len(t, f.mailer.Notified, 1)
	assert.Equal(t, inq.Reference, f.mailer.Notified[0])
}

func TestSubmitInquiry_DefaultsAndNotificationFailure(t *testing.T) {
	f := newInquiryFixture(t)
	f.mailer.SendInquiryNotificationFunc = func(ctx context.Context, to string, inquiry *models.Inquiry) error {
		return errBoom
	}

	in := validInquiry()
	in.Adults = 0
	in.TravelDate = ""
	in.Message = ""
	inq, err := f.svc.SubmitInquiry(context.Background(), in, "")
	require.NoError(t, err, "notification failures do not fail the submission")
	assert.Equal(t, 1, inq.Adults)
	assert.Nil(t, inq.TravelDate)
}

func TestSubmitInquiry_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *InquiryInput)
		kind   models.ErrorKind
	}{
		{"missing name", func(in *InquiryInput) { in.Name = "" }, models.KindValidation},
		{"bad email", func(in *InquiryInput) { in.Email = "priya@" }, models.KindValidation},
		{"missing phone", func(in *InquiryInput) { in.Phone = " " }, models.KindValidation},
		{"bad phone", func(in *InquiryInput) { in.Phone = "call me" }, models.KindValidation},
		{"negative children", func(in *InquiryInput) { in.Children = -1 }, models.KindValidation},
		{"too many travellers", func(in *InquiryInput) { in.Adults = 49; in.Children = 2 }, models.KindValidation},
		{"bad date", func(in *InquiryInput) { in.TravelDate = "10/04/2026" }, models.KindValidation},
		{"past date", func(in *InquiryInput) { in.TravelDate = "2026-02-28" }, models.KindValidation},
		{"spam", func(in *InquiryInput) { in.Message = "Cheap v1agra, order today" }, models.KindValidation},
		{"link stuffing", func(in *InquiryInput) { in.Message = "http://a.io http://b.io http://c.io" }, models.KindValidation},
		{"too long", func(in *InquiryInput) { in.Message = strings.Repeat("a", 5001) }, models.KindValidation},
		{"bad package id", func(in *InquiryInput) { in.PackageID = "nope" }, models.KindValidation},
		{"unknown package", func(in *InquiryInput) { in.PackageID = primitive.NewObjectID().Hex() }, models.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInquiryFixture(t)
			in := validInquiry()
			tt.mutate(&in)
			_, err := f.svc.SubmitInquiry(context.Background(), in, "")
			requireKind(t, err, tt.kind)
			assert.Empty(t, f.saved)
			assert.Empty(t, f.mailer.Notified)
		})
	}
}

func TestSubmitInquiry_TodayAllowed(t *testing.T) {
	f := newInquiryFixture(t)
	in := validInquiry()
	in.TravelDate = "2026-03-01"

	_, err := f.svc.SubmitInquiry(context.Background(), in, "")
	require.NoError(t, err)
}

func TestSubmitInquiry_StoreError(t *testing.T) {
	f := newInquiryFixture(t)
	f.store.CreateInquiryFunc = func(ctx context.Context, inq *models.Inquiry) error { return errBoom }

	_, err := f.svc.SubmitInquiry(context.Background(), validInquiry(), "")
	requireKind(t, err, models.KindInternal)
	assert.Empty(t, f.mailer.Notified)
}

func TestSubmitContact(t *testing.T) {
	f := newInquiryFixture(t)

	msg, err := f.svc.SubmitContact(context.Background(), ContactInput{
		Name:    "Arjun",
		Email:   "arjun@example.com",
		Subject: " Visa help ",
		Message: "Do you arrange visas for Thailand?",
	}, "198.51.100.2")
	require.NoError(t, err)
	require.Len(t, f.contacts, 1)
	assert.Equal(t, "Visa help", msg.Subject)
	assert.Equal(t, "198.51.100.2", msg.IPAddress)
	assert.NotEmpty(t, msg.ID)

	tests := []struct {
		name string
		in   ContactInput
	}{
		{"empty message", ContactInput{Name: "A", Email: "a@x.com"}},
		{"short message", ContactInput{Name: "A", Email: "a@x.com", Message: "hi there"}},
		{"spam subject", ContactInput{Name: "A", Email: "a@x.com", Subject: "SEO services", Message: "We can rank your site fast."}},
		{"links", ContactInput{Name: "A", Email: "a@x.com", Message: "see http://a.io http://b.io www.c.io"}},
		{"bad phone", ContactInput{Name: "A", Email: "a@x.com", Phone: "abc", Message: "A normal question here."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitContact(context.Background(), tt.in, "")
			requireKind(t, err, models.KindValidation)
		})
	}
	assert.Len(t, f.contacts, 1)
}

func TestSubmissions_TravelWordsAreNotSpam(t *testing.T) {
	f := newInquiryFixture(t)
	ctx := context.Background()

	in := validInquiry()
	in.Message = "Planning a Goa trip with friends, would love a hotel near the casino."
	_, err := f.svc.SubmitInquiry(ctx, in, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitContact(ctx, ContactInput{
		Name:    "Meera",
		Email:   "meera@example.com",
		Subject: "Macau tour",
		Message: "Does the Macau tour include the casino visit or is it optional?",
	}, "")
	require.NoError(t, err)

	assert.Len(t, f.saved, 1)
	assert.Len(t, f.contacts, 1)

	_, err = f.svc.SubmitContact(ctx, ContactInput{
		Name:    "Bot",
		Email:   "bot@example.com",
		Message: "Deals at http://a.io and http://b.io and http://c.io",
	}, "")
	assert.True(t, models.IsKind(err, models.KindValidation), "link-stuffed messages are still rejected: %v", err)
	assert.False(t, models.IsKind(err, models.KindInternal))
	assert.Len(t, f.contacts, 1)
}

func TestInquiryAdminOperations(t *testing.T) {
	f := newInquiryFixture(t)
	ctx := context.Background()
	id := "3f2b8a52-3a55-4c1e-9b7a-6c3d2e1f0a9b"

	var gotStatus models.InquiryStatus
	f.store.ListInquiriesFunc = func(ctx context.Context, status models.InquiryStatus, page, limit int64) ([]models.Inquiry, int64, error) {
		gotStatus = status
		return []models.Inquiry{{ID: id}}, 1, nil
	}
	page, err := f.svc.ListInquiries(ctx, " Contacted ", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, models.InquiryStatusContacted, gotStatus)
	assert.Equal(t, int64(1), page.Page)
	assert.Equal(t, int64(MaxPageSize), page.Limit)

	_, err = f.svc.ListInquiries(ctx, "pending", 1, 10)
	requireKind(t, err, models.KindValidation)

	f.store.UpdateInquiryStatusFunc = func(ctx context.Context, got string, status models.InquiryStatus) error {
		if got != id {
			return models.ErrInquiryNotFound
		}
		return nil
	}
	require.NoError(t, f.svc.UpdateInquiryStatus(ctx, strings.ToUpper(id), "closed"))
	requireKind(t, f.svc.UpdateInquiryStatus(ctx, id, "archived"), models.KindValidation)
	requireKind(t, f.svc.UpdateInquiryStatus(ctx, "123", "closed"), models.KindValidation)
	requireKind(t, f.svc.UpdateInquiryStatus(ctx, "9d1c5e4a-0b2f-4d6e-8a1b-2c3d4e5f6a7b", "closed"), models.KindNotFound)

	f.store.DeleteInquiryFunc = func(ctx context.Context, got string) error { return models.ErrInquiryNotFound }
	requireKind(t, f.svc.DeleteInquiry(ctx, id), models.KindNotFound)
	requireKind(t, f.svc.DeleteInquiry(ctx, ""), models.KindValidation)

	f.store.DeleteContactFunc = func(ctx context.Context, got string) error { return errBoom }
	requireKind(t, f.svc.DeleteContact(ctx, id), models.KindInternal)

	f.store.ListContactsFunc = func(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error) {
		return []models.ContactMessage{{ID: id}}, 1, nil
	}
	contacts, err := f.svc.ListContacts(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), contacts.Page)
	assert.Len(t, contacts.Contacts, 1)
}

type recordingPublisher struct {
	events []AdminEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event AdminEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestSubmissionsAnnounceAdminEvents(t *testing.T) {
	f := newInquiryFixture(t)
	pub := &recordingPublisher{}
	f.svc.WithEvents(pub)

	inq, err := f.svc.SubmitInquiry(context.Background(), validInquiry(), "203.0.113.7")
	require.NoError(t, err)
	_, err = f.svc.SubmitContact(context.Background(), ContactInput{
		Name:    "Priya",
		Email:   "priya@example.com",
		Subject: "Visa help",
		Message: "Do you arrange visas for Bali?",
	}, "203.0.113.7")
	require.NoError(t, err)

	require.Len(t, pub.events, 2)
	assert.Equal(t, EventInquiryCreated, pub.events[0].Type)
	assert.Equal(t, inq.Reference, pub.events[0].Reference)
	assert.Equal(t, "Priya", pub.events[0].Name)
	assert.Equal(t, EventContactCreated, pub.events[1].Type)
	assert.Equal(t, "Visa help", pub.events[1].Subject)

	pub.err = assert.AnError
	_, err = f.svc.SubmitInquiry(context.Background(), validInquiry(), "203.0.113.7")
	assert.NoError(t, err, "a failed publish does not fail the submission")
}
