package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TravelPackage is a tour offered in the catalog.
type TravelPackage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Slug        string `bson:"slug" json:"slug"`
	Title       string `bson:"title" json:"title"`
	Destination string `bson:"destination" json:"destination"`
	Category    string `bson:"category,omitempty" json:"category,omitempty"` // e.g. honeymoon, adventure, pilgrimage
	Summary     string `bson:"summary,omitempty" json:"summary,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	DurationDays   int     `bson:"durationDays" json:"durationDays"`
	DurationNights int     `bson:"durationNights" json:"durationNights"`
	Price          float64 `bson:"price" json:"price"`
	Currency       string  `bson:"currency" json:"currency"`

	Images     []string       `bson:"images,omitempty" json:"images"`
	Highlights []string       `bson:"highlights,omitempty" json:"highlights"`
	Itinerary  []ItineraryDay `bson:"itinerary,omitempty" json:"itinerary"`
	Inclusions []string       `bson:"inclusions,omitempty" json:"inclusions"`
	Exclusions []string       `bson:"exclusions,omitempty" json:"exclusions"`

	IsFeatured bool `bson:"isFeatured" json:"isFeatured"`
	IsActive   bool `bson:"isActive" json:"isActive"`
}

type ItineraryDay struct {
	Day         int    `bson:"day" json:"day"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// PackageFilter narrows catalog listings. Zero values mean "any".
type PackageFilter struct {
	Category        string
	Destination     string
	FeaturedOnly    bool
	IncludeInactive bool
	Page            int64
	Limit           int64
}

// PackageInput is the admin payload for creating or replacing a package.
type PackageInput struct {
	Title          string         `json:"title"`
	Destination    string         `json:"destination"`
	Category       string         `json:"category"`
	Summary        string         `json:"summary"`
	Description    string         `json:"description"`
	DurationDays   int            `json:"durationDays"`
	DurationNights int            `json:"durationNights"`
	Price          float64        `json:"price"`
	Currency       string         `json:"currency"`
	Images         []string       `json:"images"`
	Highlights     []string       `json:"highlights"`
	Itinerary      []ItineraryDay `json:"itinerary"`
	Inclusions     []string       `json:"inclusions"`
	Exclusions     []string       `json:"exclusions"`
	IsFeatured     bool           `json:"isFeatured"`
	IsActive       *bool          `json:"isActive"`
}
