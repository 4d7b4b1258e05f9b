package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

type statusRequest struct {
	Status string `json:"status"`
}

// GetInquiries lists booking inquiries, optionally filtered by ?status=.
func (h *Handler) GetInquiries(w http.ResponseWriter, r *http.Request) {
	page, err := h.Inquiries.ListInquiries(r.Context(),
		r.URL.Query().Get("status"), queryInt64(r, "page"), queryInt64(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) UpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Inquiries.UpdateInquiryStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Inquiry status updated"})
}

func (h *Handler) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	if err := h.Inquiries.DeleteInquiry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Inquiry deleted"})
}

func (h *Handler) GetContacts(w http.ResponseWriter, r *http.Request) {
	page, err := h.Inquiries.ListContacts(r.Context(), queryInt64(r, "page"), queryInt64(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.Inquiries.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Contact message deleted"})
}

// UnblockIP lifts a request-counter block: PUT /api/admin/unblock-ip?ip=.
func (h *Handler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	ip := strings.TrimSpace(r.URL.Query().Get("ip"))
	if ip == "" {
		h.writeError(w, r, models.NewValidationError("IP address is required"))
		return
	}
	if net.ParseIP(ip) == nil {
		h.writeError(w, r, models.NewValidationError("Invalid IP address"))
		return
	}
	if h.Unblocker == nil {
		h.writeError(w, r, models.NewStateConflictError("IP blocking is not enabled"))
		return
	}

	blocked, err := h.Unblocker.IsIPBlocked(r.Context(), ip)
	if err != nil {
		h.writeError(w, r, models.NewInternalError("Failed to check block status", err))
		return
	}
	if !blocked {
		writeJSON(w, http.StatusOK, messageResponse{Message: "IP address is not currently blocked"})
		return
	}
	if err := h.Unblocker.UnblockIP(r.Context(), ip); err != nil {
		h.writeError(w, r, models.NewInternalError("Failed to unblock IP", err))
		return
	}
	h.Logger.Info("ip unblocked", zap.String("ip", ip))
	writeJSON(w, http.StatusOK, messageResponse{Message: "IP address unblocked"})
}
