package drill

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/middleware"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/notes"
	"github.com/gisa-quiz/backend/internal/quiz"
	"github.com/gisa-quiz/backend/internal/sessions"
)

// User-facing messages for drill errors.
var messages = map[error]string{
	quiz.ErrEmptySelection:    "문제가 없습니다.",
	quiz.ErrInvalidFilter:     "올바르지 않은 과목 또는 유형입니다.",
	quiz.ErrUnknownOption:     "보기 중에서 답을 선택하세요.",
	quiz.ErrAlreadyAnswered:   "이미 답을 선택한 문제입니다.",
	quiz.ErrInvalidTransition: "지금은 할 수 없는 동작입니다.",
	backend.ErrNotConfigured:  "저장소가 설정되지 않아 저장할 수 없습니다.",
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type stateFunc func(ctx context.Context, c *sessions.Context) (models.DrillState, error)

// transition adapts a state-returning service call into a handler.
func (h *Handler) transition(action string, fn stateFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := middleware.ClientFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
			return
		}

		state, err := fn(r.Context(), c)
		if err != nil {
			writeError(w, action, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.transition("state", h.service.State)(w, r)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition("start", h.service.Start)(w, r)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.transition("next", h.service.Next)(w, r)
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.transition("restart", h.service.Restart)(w, r)
}

func (h *Handler) ShowReview(w http.ResponseWriter, r *http.Request) {
	h.transition("show review", h.service.ShowReview)(w, r)
}

func (h *Handler) CloseReview(w http.ResponseWriter, r *http.Request) {
	h.transition("close review", h.service.CloseReview)(w, r)
}

func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req models.DrillFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.transition("set filter", func(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
		return h.service.SetFilter(ctx, c, quiz.Filter{Category: req.Category, Type: req.Type})
	})(w, r)
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.DrillAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.transition("answer", func(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
		return h.service.Answer(ctx, c, req.Option)
	})(w, r)
}

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Result(c)
	if err != nil {
		writeError(w, "result", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetWrongAnswers(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	wrong, err := h.service.WrongAnswers(c)
	if err != nil {
		writeError(w, "wrong answers", err)
		return
	}
	writeJSON(w, http.StatusOK, models.WrongAnswerListResponse{WrongAnswers: wrong, Total: len(wrong)})
}

func (h *Handler) SaveWrongAnswers(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.SaveWrongAnswers(r.Context(), c)
	if err != nil {
		writeError(w, "save wrong answers", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrEmptySelection), errors.Is(err, quiz.ErrInvalidFilter),
		errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrInvalidTransition), errors.Is(err, quiz.ErrAlreadyAnswered):
		return http.StatusConflict
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

func writeError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	msg := "Internal server error"
	for target, m := range messages {
		if errors.Is(err, target) {
			msg = m
			break
		}
	}

	switch {
	case errors.Is(err, notes.ErrSaveFailed):
		msg = notes.ErrSaveFailed.Error()
	case errors.Is(err, backend.ErrUserNotFound):
		msg = "Unauthorized"
	case errors.Is(err, backend.ErrNotFound):
		msg = "Question not found"
	}
	if status == http.StatusInternalServerError {
		log.Printf("[drill] %s failed: %v", action, err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
