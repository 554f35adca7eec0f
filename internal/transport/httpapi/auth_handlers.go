package httpapi

import (
	"net/http"

	"github.com/vladislavdragonenkov/ordermgmt/internal/service/auth"
)

// Register — POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Document:        req.Document,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login — POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, User: toUserResponse(session.User)})
}

// Logout — POST /auth/logout, отзывает текущий токен.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(claimsFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Profile — GET /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), currentUserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
