package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

type packageResponse struct {
	Message string                `json:"message,omitempty"`
	Package *models.TravelPackage `json:"package"`
}

func packageFilter(r *http.Request) models.PackageFilter {
	q := r.URL.Query()
	featured, _ := strconv.ParseBool(q.Get("featured"))
	return models.PackageFilter{
		Category:     q.Get("category"),
		Destination:  q.Get("destination"),
		FeaturedOnly: featured,
		Page:         queryInt64(r, "page"),
		Limit:        queryInt64(r, "limit"),
	}
}

// ListPackages serves the public catalog.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	page, err := h.Catalog.List(r.Context(), packageFilter(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.Catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packageResponse{Package: pkg})
}

// AdminListPackages includes inactive packages and skips the cache.
func (h *Handler) AdminListPackages(w http.ResponseWriter, r *http.Request) {
	page, err := h.Catalog.AdminList(r.Context(), packageFilter(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var in models.PackageInput
	if !h.decode(w, r, &in) {
		return
	}
	pkg, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, packageResponse{Message: "Package created", Package: pkg})
}

func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	var in models.PackageInput
	if !h.decode(w, r, &in) {
		return
	}
	pkg, err := h.Catalog.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packageResponse{Message: "Package updated", Package: pkg})
}

func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Package deleted"})
}
