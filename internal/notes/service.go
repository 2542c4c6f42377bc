package notes

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
)

var (
	ErrInvalidNote     = errors.New("invalid note")
	ErrInvalidFilter   = errors.New("note filter must be all, wrong_answer or memo")
	ErrConfirmRequired = errors.New("삭제하려면 확인이 필요합니다.")
	ErrSaveFailed      = errors.New("저장 실패")
	ErrDeleteFailed    = errors.New("삭제 실패")
)

type Service struct {
	store backend.NoteStore
}

func NewService(store backend.NoteStore) *Service {
	return &Service{store: store}
}

// Fetch returns the user's notes newest first, narrowed by filter, with the
// per-kind counts of the unfiltered list. A store that is not configured
// yields an empty list.
func (s *Service) Fetch(ctx context.Context, userID string, filter models.NoteFilter) (*models.NoteListResponse, error) {
	if filter == "" {
		filter = models.NoteFilterAll
	}
	if filter != models.NoteFilterAll && !models.ValidNoteTypes[models.NoteType(filter)] {
		return nil, ErrInvalidFilter
	}

	notes, err := s.store.FetchNotes(ctx, userID)
	if err != nil {
		if !errors.Is(err, backend.ErrNotConfigured) {
			return nil, fmt.Errorf("fetch notes: %w", err)
		}
		notes = nil
	}

	resp := &models.NoteListResponse{
		Notes:  Filter(notes, filter),
		Filter: filter,
	}
	for _, n := range notes {
		switch n.NoteType {
		case models.NoteWrongAnswer:
			resp.WrongAnswerCount++
		case models.NoteMemo:
			resp.MemoCount++
		}
	}
	resp.Total = len(resp.Notes)

	return resp, nil
}

// Filter keeps the notes of the given kind in their original order.
func Filter(notes []models.SavedNote, filter models.NoteFilter) []models.SavedNote {
	out := make([]models.SavedNote, 0, len(notes))
	for _, n := range notes {
		if filter == models.NoteFilterAll || models.NoteFilter(n.NoteType) == filter {
			out = append(out, n)
		}
	}
	return out
}

// Save stores a note and returns its ID.
func (s *Service) Save(ctx context.Context, in models.NoteInput) (string, error) {
	if err := validate(in); err != nil {
		return "", err
	}

	id, err := s.store.SaveNote(ctx, in)
	if err != nil {
		return "", saveError(in.UserID, err)
	}
	return id, nil
}

// Delete removes one of the user's notes. confirmed must be true.
func (s *Service) Delete(ctx context.Context, userID, noteID string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmRequired
	}

	err := s.store.DeleteNote(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, backend.ErrNotConfigured) || errors.Is(err, backend.ErrNotFound) {
			return err
		}
		log.Printf("[notes] delete %s failed: %v", noteID, err)
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// SaveWrongAnswers stores every wrong answer as a wrong_answer note in one
// write. Either all notes are saved or none are.
func (s *Service) SaveWrongAnswers(ctx context.Context, userID string, wrong []models.WrongAnswer) (*models.SaveWrongAnswersResponse, error) {
	inputs := make([]models.NoteInput, 0, len(wrong))
	for _, w := range wrong {
		selected := w.UserAnswer.SelectedAnswer
		in := models.NoteInput{
			UserID:     userID,
			QuestionID: w.Question.ID,
			NoteType:   models.NoteWrongAnswer,
			UserAnswer: &selected,
		}
		if err := validate(in); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	resp := &models.SaveWrongAnswersResponse{NoteIDs: []string{}}
	if len(inputs) == 0 {
		return resp, nil
	}

	ids, err := s.store.SaveNotes(ctx, inputs)
	if err != nil {
		return nil, saveError(userID, err)
	}
	resp.NoteIDs = append(resp.NoteIDs, ids...)
	resp.Saved = len(ids)

	return resp, nil
}

// saveError passes the errors callers act on through and folds the rest
// into ErrSaveFailed.
func saveError(userID string, err error) error {
	if errors.Is(err, backend.ErrNotConfigured) || errors.Is(err, backend.ErrNotFound) ||
		errors.Is(err, backend.ErrUserNotFound) {
		return err
	}
	log.Printf("[notes] save for user %s failed: %v", userID, err)
	return fmt.Errorf("%w: %v", ErrSaveFailed, err)
}

// validate only checks what every note needs. A memo may carry just the
// selected answer and a wrong_answer note may have no selection.
func validate(in models.NoteInput) error {
	if in.QuestionID == "" {
		return fmt.Errorf("%w: question_id is required", ErrInvalidNote)
	}
	if !models.ValidNoteTypes[in.NoteType] {
		return fmt.Errorf("%w: note_type %q", ErrInvalidNote, in.NoteType)
	}
	return nil
}
