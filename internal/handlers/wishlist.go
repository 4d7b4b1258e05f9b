package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/travelnest-backend/internal/middleware"
	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

type wishlistRequest struct {
	PackageID string `json:"packageId"`
}

type wishlistResponse struct {
	Items []services.WishlistEntry `json:"items"`
	Count int                      `json:"count"`
}

// userID reads the caller from the session claims, answering 401 when absent.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		h.writeError(w, r, models.NewAuthError("Authentication required"))
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	items, err := h.Wishlist.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []services.WishlistEntry{}
	}
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items, Count: len(items)})
}

func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req wishlistRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Wishlist.Add(r.Context(), userID, req.PackageID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Added to wishlist"})
}

func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.Wishlist.Remove(r.Context(), userID, chi.URLParam(r, "packageId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Removed from wishlist"})
}
