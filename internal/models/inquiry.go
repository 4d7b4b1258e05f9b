package models

import (
	"time"
)

// InquiryStatus tracks how far the sales team got with a booking inquiry.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusClosed    InquiryStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusNew, InquiryStatusContacted, InquiryStatusClosed:
		return true
	}
	return false
}

// Inquiry is a booking request submitted from a package page or the generic
// "plan my trip" form. Stored in Postgres.
type Inquiry struct {
	ID           string        `json:"id"`
	Reference    string        `json:"reference"`
	CreatedAt    time.Time     `json:"createdAt"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	PackageID    string        `json:"packageId,omitempty"`
	PackageTitle string        `json:"packageTitle,omitempty"`
	TravelDate   *time.Time    `json:"travelDate,omitempty"`
	Adults       int           `json:"adults"`
	Children     int           `json:"children"`
	Message      string        `json:"message,omitempty"`
	Status       InquiryStatus `json:"status"`
	IPAddress    string        `json:"ipAddress,omitempty"`
}

// ContactMessage is a submission from the contact-us page.
type ContactMessage struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ipAddress,omitempty"`
}
