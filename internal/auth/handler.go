package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gisa-quiz/backend/internal/middleware"
	"github.com/gisa-quiz/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	h.service.SignOut(r.Context(), c)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "로그아웃 되었습니다."})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	u := h.service.Me(r.Context(), c)
	writeJSON(w, http.StatusOK, models.MeResponse{User: u, DisplayName: u.DisplayName()})
}

func (h *Handler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	available, err := h.service.UsernameAvailable(r.Context(), username)
	if err != nil {
		writeError(w, "username check", err)
		return
	}

	writeJSON(w, http.StatusOK, models.UsernameAvailabilityResponse{Username: username, Available: available})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrUnknownUsername):
		return http.StatusNotFound
	case errors.Is(err, ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[auth] %s failed: %v", action, err)
		msg = "Internal server error"
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
