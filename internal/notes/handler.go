package notes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/middleware"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	filter := models.NoteFilter(r.URL.Query().Get("type"))
	resp, err := h.service.Fetch(r.Context(), c.User.ID, filter)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	id, err := h.service.Save(r.Context(), models.NoteInput{
		UserID:     c.User.ID,
		QuestionID: req.QuestionID,
		NoteType:   req.NoteType,
		UserAnswer: req.UserAnswer,
		Memo:       req.Memo,
	})
	if err != nil {
		writeError(w, "save note", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.SaveNoteResponse{ID: id, Message: "저장되었습니다."})
}

// DeleteNote requires ?confirm=true.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.service.Delete(r.Context(), c.User.ID, mux.Vars(r)["id"], confirmed); err != nil {
		writeError(w, "delete note", err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "삭제되었습니다."})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidNote), errors.Is(err, ErrInvalidFilter), errors.Is(err, ErrConfirmRequired):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError keeps store details out of responses; save and delete failures
// surface as their short user-facing message.
func writeError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, backend.ErrUserNotFound):
		msg = "Unauthorized"
	case errors.Is(err, backend.ErrNotFound):
		msg = "Note or question not found"
	case errors.Is(err, ErrSaveFailed):
		msg = ErrSaveFailed.Error()
	case errors.Is(err, ErrDeleteFailed):
		msg = ErrDeleteFailed.Error()
	case status == http.StatusInternalServerError:
		log.Printf("[notes] %s failed: %v", action, err)
		msg = "Internal server error"
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
