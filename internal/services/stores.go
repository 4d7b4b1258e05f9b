package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/otp"
)

// UserStore is the credential store behind the auth and wishlist flows.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetChallenge(ctx context.Context, id primitive.ObjectID, ch otp.Challenge) error
	ClearChallenge(ctx context.Context, id primitive.ObjectID) error
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) error
	RefreshPending(ctx context.Context, id primitive.ObjectID, upd PendingUpdate, ch otp.Challenge) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	AddWishlistItem(ctx context.Context, userID primitive.ObjectID, item models.WishlistItem) error
	RemoveWishlistItem(ctx context.Context, userID, packageID primitive.ObjectID) error
	PullPackageFromWishlists(ctx context.Context, packageID primitive.ObjectID) error
}

type PackageStore interface {
	List(ctx context.Context, f models.PackageFilter) ([]models.TravelPackage, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.TravelPackage, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TravelPackage, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TravelPackage, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, pkg *models.TravelPackage) error
	Replace(ctx context.Context, pkg *models.TravelPackage) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AdminOTPStore interface {
	Put(ctx context.Context, rec models.AdminOTP) error
	Get(ctx context.Context, email string) (*models.AdminOTP, error)
	Consume(ctx context.Context, email, codeHash string) error
	Delete(ctx context.Context, email string) error
}

type InquiryStore interface {
	CreateInquiry(ctx context.Context, inq *models.Inquiry) error
	ListInquiries(ctx context.Context, status models.InquiryStatus, page, limit int64) ([]models.Inquiry, int64, error)
	UpdateInquiryStatus(ctx context.Context, id string, status models.InquiryStatus) error
	DeleteInquiry(ctx context.Context, id string) error
	CreateContact(ctx context.Context, msg *models.ContactMessage) error
	ListContacts(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error)
	DeleteContact(ctx context.Context, id string) error
}

// Cooldown gates how often a code may be re-sent to an address.
type Cooldown interface {
	Arm(ctx context.Context, email string) error
	Remaining(ctx context.Context, email string) (time.Duration, error)
}

// Cache holds rendered catalog responses.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, resource string) error
}

// compile-time checks
var (
	_ UserStore      = (*MongoUserStore)(nil)
	_ PackageStore   = (*MongoPackageStore)(nil)
	_ AdminOTPStore  = (*MongoAdminOTPStore)(nil)
	_ InquiryStore   = (*PostgresInquiryStore)(nil)
	_ Cooldown       = (*ResendCooldown)(nil)
	_ Cache          = (*CacheService)(nil)
	_ Mailer         = (*SMTPMailer)(nil)
	_ Mailer         = (*LogMailer)(nil)
	_ EventPublisher = (*EventHub)(nil)
)

// runAsync starts fn on its own goroutine. Swapped in tests to run inline.
func runAsync(fn func()) {
	go fn()
}
