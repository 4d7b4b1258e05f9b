package handlers

import "net/http"

type adminTokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// SendAdminOTP emails a login code to the configured admin address.
func (h *Handler) SendAdminOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Admin.SendOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Login code sent to the admin email"})
}

func (h *Handler) VerifyAdminOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.Admin.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminTokenResponse{Message: "Admin login successful", Token: token})
}
