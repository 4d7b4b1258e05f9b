package handlers

import (
	"net/http"

	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

type inquiryRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PackageID  string `json:"packageId,omitempty"`
	TravelDate string `json:"travelDate,omitempty"` // YYYY-MM-DD
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Message    string `json:"message,omitempty"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type inquiryResponse struct {
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

// SubmitInquiry records a booking inquiry from the public site.
func (h *Handler) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var req inquiryRequest
	if !h.decode(w, r, &req) {
		return
	}
	inquiry, err := h.Inquiries.SubmitInquiry(r.Context(), services.InquiryInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		PackageID:  req.PackageID,
		TravelDate: req.TravelDate,
		Adults:     req.Adults,
		Children:   req.Children,
		Message:    req.Message,
	}, h.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inquiryResponse{
		Message:   "Thank you! Our travel expert will contact you shortly.",
		Reference: inquiry.Reference,
	})
}

func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !h.decode(w, r, &req) {
		return
	}
	_, err := h.Inquiries.SubmitContact(r.Context(), services.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}, h.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Message received. We'll get back to you soon!"})
}
