package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/travelnest-backend/internal/handlers"
	"github.com/AnshRaj112/travelnest-backend/internal/middleware"
)

// SetupRoutes mounts the JSON API on r. Customer routes require a user
// session and /api/admin requires an admin session.
func SetupRoutes(r chi.Router, h *handlers.Handler, tokens middleware.TokenValidator) {
	r.Get("/health", h.Health)

	// Customer auth
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/resend-otp", h.ResendOTP)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-reset-otp", h.VerifyResetOTP)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/login", h.Login)
		r.With(middleware.RequireUser(tokens)).Get("/me", h.Me)

		// Admin login
		r.Post("/send-otp", h.SendAdminOTP)
		r.Post("/verify-admin-otp", h.VerifyAdminOTP)
	})

	// Catalog
	r.Get("/api/packages", h.ListPackages)
	r.Get("/api/packages/{slug}", h.GetPackage)

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(middleware.RequireUser(tokens))
		r.Get("/", h.GetWishlist)
		r.Post("/", h.AddToWishlist)
		r.Delete("/{packageId}", h.RemoveFromWishlist)
	})

	// Public forms
	r.Post("/api/inquiries", h.SubmitInquiry)
	r.Post("/api/contact", h.SubmitContact)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.WebSocketToken)
		r.Use(middleware.RequireAdmin(tokens))

		r.Get("/events", h.AdminEvents)

		r.Get("/packages", h.AdminListPackages)
		r.Post("/packages", h.CreatePackage)
		r.Put("/packages/{id}", h.UpdatePackage)
		r.Delete("/packages/{id}", h.DeletePackage)

		r.Get("/inquiries", h.GetInquiries)
		r.Put("/inquiries/{id}/status", h.UpdateInquiryStatus)
		r.Delete("/inquiries/{id}", h.DeleteInquiry)

		r.Get("/contacts", h.GetContacts)
		r.Delete("/contacts/{id}", h.DeleteContact)

		r.Put("/unblock-ip", h.UnblockIP)
	})
}
