package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
)

// ==============================================
// IN-MEMORY USER STORE
// ==============================================

type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	// optional failure injection
	createErr error
	findErr   error
	deleted   []primitive.ObjectID
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[primitive.ObjectID]*models.User{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Challenge != nil {
		ch := *u.Challenge
		c.Challenge = &ch
	}
	c.Wishlist = append([]models.WishlistItem(nil), u.Wishlist...)
	return &c
}

func (m *memUserStore) get(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u)
		}
	}
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u := m.get(email); u != nil {
		return u, nil
	}
	return nil, models.ErrUserNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *memUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memUserStore) mutate(id primitive.ObjectID, fn func(u *models.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	return fn(u)
}

func (m *memUserStore) SetChallenge(_ context.Context, id primitive.ObjectID, ch otp.Challenge) error {
	return m.mutate(id, func(u *models.User) error {
		u.Challenge = &ch
		return nil
	})
}

func (m *memUserStore) ClearChallenge(_ context.Context, id primitive.ObjectID) error {
	return m.mutate(id, func(u *models.User) error {
		u.Challenge = nil
		return nil
	})
}

func (m *memUserStore) IncrementAttempts(_ context.Context, id primitive.ObjectID) error {
	return m.mutate(id, func(u *models.User) error {
		if u.Challenge != nil {
			u.Challenge.Attempts++
		}
		return nil
	})
}

func (m *memUserStore) RefreshPending(_ context.Context, id primitive.ObjectID, upd PendingUpdate, ch otp.Challenge) error {
	return m.mutate(id, func(u *models.User) error {
		if u.IsEmailVerified {
			return models.ErrUserNotFound
		}
		if upd.Name != "" {
			u.Name = upd.Name
		}
		if upd.PasswordHash != "" {
			u.PasswordHash = upd.PasswordHash
		}
		if upd.Phone != "" {
			u.Phone = upd.Phone
		}
		if upd.DateOfBirth != nil {
			u.DateOfBirth = upd.DateOfBirth
		}
		u.Challenge = &ch
		return nil
	})
}

func (m *memUserStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	return m.mutate(id, func(u *models.User) error {
		u.IsEmailVerified = true
		u.Challenge = nil
		return nil
	})
}

func (m *memUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return m.mutate(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		u.Challenge = nil
		return nil
	})
}

func (m *memUserStore) AddWishlistItem(_ context.Context, userID primitive.ObjectID, item models.WishlistItem) error {
	return m.mutate(userID, func(u *models.User) error {
		if u.HasWishlisted(item.PackageID) {
			return models.ErrAlreadyInWishlist
		}
		u.Wishlist = append(u.Wishlist, item)
		return nil
	})
}

func (m *memUserStore) RemoveWishlistItem(_ context.Context, userID, packageID primitive.ObjectID) error {
	return m.mutate(userID, func(u *models.User) error {
		for i, item := range u.Wishlist {
			if item.PackageID == packageID {
				u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
				return nil
			}
		}
		return models.ErrNotInWishlist
	})
}

func (m *memUserStore) PullPackageFromWishlists(_ context.Context, packageID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		kept := u.Wishlist[:0]
		for _, item := range u.Wishlist {
			if item.PackageID != packageID {
				kept = append(kept, item)
			}
		}
		u.Wishlist = kept
	}
	return nil
}

// ==============================================
// MOCK MAILER
// ==============================================

type sentOTP struct {
	To      string
	Code    string
	Purpose otp.State
}

type MockMailer struct {
	mu sync.Mutex

	SendOTPFunc                 func(ctx context.Context, to, code string, purpose otp.State) error
	SendWelcomeFunc             func(ctx context.Context, to, name string) error
	SendAdminOTPFunc            func(ctx context.Context, to, code string) error
	SendInquiryNotificationFunc func(ctx context.Context, to string, inquiry *models.Inquiry) error

	OTPs       []sentOTP
	AdminCodes []string
	Welcomed   []string
	Notified   []string
}

func (m *MockMailer) SendOTP(ctx context.Context, to, code string, purpose otp.State, _ time.Duration) error {
	if m.SendOTPFunc != nil {
		if err := m.SendOTPFunc(ctx, to, code, purpose); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OTPs = append(m.OTPs, sentOTP{To: to, Code: code, Purpose: purpose})
	return nil
}

func (m *MockMailer) SendWelcome(ctx context.Context, to, name string) error {
	if m.SendWelcomeFunc != nil {
		if err := m.SendWelcomeFunc(ctx, to, name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Welcomed = append(m.Welcomed, to)
	return nil
}

func (m *MockMailer) SendAdminOTP(ctx context.Context, to, code string, _ time.Duration) error {
	if m.SendAdminOTPFunc != nil {
		if err := m.SendAdminOTPFunc(ctx, to, code); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdminCodes = append(m.AdminCodes, code)
	return nil
}

func (m *MockMailer) SendInquiryNotification(ctx context.Context, to string, inquiry *models.Inquiry) error {
	if m.SendInquiryNotificationFunc != nil {
		if err := m.SendInquiryNotificationFunc(ctx, to, inquiry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, inquiry.Reference)
	return nil
}

func (m *MockMailer) lastOTP() sentOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.OTPs) == 0 {
		return sentOTP{}
	}
	return m.OTPs[len(m.OTPs)-1]
}

// ==============================================
// MOCK COOLDOWN
// ==============================================

type MockCooldown struct {
	RemainingFunc func(ctx context.Context, email string) (time.Duration, error)
	Armed         []string
}

func (m *MockCooldown) Arm(_ context.Context, email string) error {
	m.Armed = append(m.Armed, email)
	return nil
}

func (m *MockCooldown) Remaining(ctx context.Context, email string) (time.Duration, error) {
	if m.RemainingFunc != nil {
		return m.RemainingFunc(ctx, email)
	}
	return 0, nil
}

// ==============================================
// MOCK PACKAGE STORE
// ==============================================

type MockPackageStore struct {
	ListFunc       func(ctx context.Context, f models.PackageFilter) ([]models.TravelPackage, int64, error)
	FindBySlugFunc func(ctx context.Context, slug string) (*models.TravelPackage, error)
	FindByIDFunc   func(ctx context.Context, id primitive.ObjectID) (*models.TravelPackage, error)
	FindByIDsFunc  func(ctx context.Context, ids []primitive.ObjectID) ([]models.TravelPackage, error)
	SlugExistsFunc func(ctx context.Context, slug string) (bool, error)
	CreateFunc     func(ctx context.Context, pkg *models.TravelPackage) error
	ReplaceFunc    func(ctx context.Context, pkg *models.TravelPackage) error
	DeleteFunc     func(ctx context.Context, id primitive.ObjectID) error
}

func (m *MockPackageStore) List(ctx context.Context, f models.PackageFilter) ([]models.TravelPackage, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return []models.TravelPackage{}, 0, nil
}

func (m *MockPackageStore) FindBySlug(ctx context.Context, slug string) (*models.TravelPackage, error) {
	if m.FindBySlugFunc != nil {
		return m.FindBySlugFunc(ctx, slug)
	}
	return nil, models.ErrPackageNotFound
}

func (m *MockPackageStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TravelPackage, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, models.ErrPackageNotFound
}

func (m *MockPackageStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TravelPackage, error) {
	if m.FindByIDsFunc != nil {
		return m.FindByIDsFunc(ctx, ids)
	}
	return []models.TravelPackage{}, nil
}

func (m *MockPackageStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.SlugExistsFunc != nil {
		return m.SlugExistsFunc(ctx, slug)
	}
	return false, nil
}

func (m *MockPackageStore) Create(ctx context.Context, pkg *models.TravelPackage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pkg)
	}
	pkg.ID = primitive.NewObjectID()
	return nil
}

func (m *MockPackageStore) Replace(ctx context.Context, pkg *models.TravelPackage) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, pkg)
	}
	return nil
}

func (m *MockPackageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// ==============================================
// MOCK INQUIRY STORE
// ==============================================

type MockInquiryStore struct {
	CreateInquiryFunc       func(ctx context.Context, inq *models.Inquiry) error
	ListInquiriesFunc       func(ctx context.Context, status models.InquiryStatus, page, limit int64) ([]models.Inquiry, int64, error)
	UpdateInquiryStatusFunc func(ctx context.Context, id string, status models.InquiryStatus) error
	DeleteInquiryFunc       func(ctx context.Context, id string) error
	CreateContactFunc       func(ctx context.Context, msg *models.ContactMessage) error
	ListContactsFunc        func(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error)
	DeleteContactFunc       func(ctx context.Context, id string) error
}

func (m *MockInquiryStore) CreateInquiry(ctx context.Context, inq *models.Inquiry) error {
	if m.CreateInquiryFunc != nil {
		return m.CreateInquiryFunc(ctx, inq)
	}
	return nil
}

func (m *MockInquiryStore) ListInquiries(ctx context.Context, status models.InquiryStatus, page, limit int64) ([]models.Inquiry, int64, error) {
	if m.ListInquiriesFunc != nil {
		return m.ListInquiriesFunc(ctx, status, page, limit)
	}
	return []models.Inquiry{}, 0, nil
}

func (m *MockInquiryStore) UpdateInquiryStatus(ctx context.Context, id string, status models.InquiryStatus) error {
	if m.UpdateInquiryStatusFunc != nil {
		return m.UpdateInquiryStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockInquiryStore) DeleteInquiry(ctx context.Context, id string) error {
	if m.DeleteInquiryFunc != nil {
		return m.DeleteInquiryFunc(ctx, id)
	}
	return nil
}

func (m *MockInquiryStore) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	if m.CreateContactFunc != nil {
		return m.CreateContactFunc(ctx, msg)
	}
	return nil
}

func (m *MockInquiryStore) ListContacts(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error) {
	if m.ListContactsFunc != nil {
		return m.ListContactsFunc(ctx, page, limit)
	}
	return []models.ContactMessage{}, 0, nil
}

func (m *MockInquiryStore) DeleteContact(ctx context.Context, id string) error {
	if m.DeleteContactFunc != nil {
		return m.DeleteContactFunc(ctx, id)
	}
	return nil
}

// ==============================================
// IN-MEMORY ADMIN OTP STORE
// ==============================================

type memAdminOTPStore struct {
	mu   sync.Mutex
	recs map[string]models.AdminOTP
}

func newMemAdminOTPStore() *memAdminOTPStore {
	return &memAdminOTPStore{recs: map[string]models.AdminOTP{}}
}

func (m *memAdminOTPStore) Put(_ context.Context, rec models.AdminOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Email] = rec
	return nil
}

func (m *memAdminOTPStore) Get(_ context.Context, email string) (*models.AdminOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[email]
	if !ok {
		return nil, models.ErrAdminOTPNotFound
	}
	return &rec, nil
}

func (m *memAdminOTPStore) Consume(_ context.Context, email, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[email]
	if !ok || rec.CodeHash != codeHash {
		return models.ErrAdminOTPNotFound
	}
	delete(m.recs, email)
	return nil
}

func (m *memAdminOTPStore) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, email)
	return nil
}

var errBoom = errors.New("boom")

// inline runs background work synchronously so tests can observe it.
func inline(fn func()) { fn() }
