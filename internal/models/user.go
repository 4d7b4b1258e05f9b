package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/travelnest-backend/internal/otp"
)

// AuthProvider records how an account was created.
type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
)

// Roles carried in session tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Name        string     `bson:"name" json:"name"`
	Email       string     `bson:"email" json:"email"` // always lowercased
	Phone       string     `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`

	PasswordHash    string       `bson:"passwordHash,omitempty" json:"-"` // empty for google accounts
	Provider        AuthProvider `bson:"provider" json:"provider"`
	IsEmailVerified bool         `bson:"isEmailVerified" json:"isEmailVerified"`

	// Pending OTP or reset token, nil when no flow is in progress.
	Challenge *otp.Challenge `bson:"challenge,omitempty" json:"-"`

	Wishlist []WishlistItem `bson:"wishlist" json:"-"`
}

// WishlistItem is unique per PackageID; the service checks before inserting.
type WishlistItem struct {
	PackageID primitive.ObjectID `bson:"packageId" json:"packageId"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// HasWishlisted reports whether packageID is already on the user's wishlist.
func (u *User) HasWishlisted(packageID primitive.ObjectID) bool {
	for _, item := range u.Wishlist {
		if item.PackageID == packageID {
			return true
		}
	}
	return false
}

// PublicUser is the profile returned to clients.
type PublicUser struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone,omitempty"`
	DateOfBirth     *time.Time   `json:"dateOfBirth,omitempty"`
	Provider        AuthProvider `json:"provider"`
	IsEmailVerified bool         `json:"isEmailVerified"`
	CreatedAt       time.Time    `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID.Hex(),
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		DateOfBirth:     u.DateOfBirth,
		Provider:        u.Provider,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}
