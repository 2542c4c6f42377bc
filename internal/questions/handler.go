package questions

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/quiz"
)

// maxUploadSize bounds spreadsheet and JSON uploads.
const maxUploadSize = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := quiz.Filter{
		Category: models.Category(query.Get("category")),
		Type:     models.QuestionType(query.Get("type")),
	}

	questions, err := h.service.List(r.Context(), f)
	if err != nil {
		writeError(w, "list questions", err)
		return
	}

	writeJSON(w, http.StatusOK, models.QuestionListResponse{Questions: questions, Total: len(questions)})
}

func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.FilterOptions(r.Context())
	if err != nil {
		writeError(w, "filter options", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ImportQuestions accepts a JSON array of question records or a spreadsheet,
// either as the raw body or as the "file" field of a multipart form.
func (h *Handler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	var (
		body  io.Reader = r.Body
		isXLS           = r.URL.Query().Get("format") == "xlsx" || r.Header.Get("Content-Type") == xlsxContentType
		sheet           = r.URL.Query().Get("sheet")
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "file field is required"})
			return
		}
		defer file.Close()

		body = file
		isXLS = strings.EqualFold(filepath.Ext(header.Filename), ".xlsx")
		if v := r.FormValue("sheet"); v != "" {
			sheet = v
		}
	}

	var (
		questions []models.Question
		result    models.ImportResult
		err       error
	)
	if isXLS {
		questions, result, err = importer.ParseXLSX(body, sheet)
	} else {
		questions, result, err = importer.ParseJSON(body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid import file: " + err.Error()})
		return
	}

	result, err = h.service.Import(r.Context(), questions, result)
	if err != nil {
		if errors.Is(err, ErrNothingToImport) {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeError(w, "import questions", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		writeError(w, "generate questions", err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrInvalidFilter), errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrNothingToImport):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrNotConfigured), errors.Is(err, ErrGeneratorDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[handler] %s failed: %v", action, err)
		msg = "Internal server error"
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
