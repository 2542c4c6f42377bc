package models

import "time"

type NoteType string

const (
	NoteWrongAnswer NoteType = "wrong_answer"
	NoteMemo        NoteType = "memo"
)

var ValidNoteTypes = map[NoteType]bool{
	NoteWrongAnswer: true,
	NoteMemo:        true,
}

// NoteFilter selects notes client-side. NoteFilterAll keeps every note.
type NoteFilter string

const (
	NoteFilterAll         NoteFilter = "all"
	NoteFilterWrongAnswer NoteFilter = NoteFilter(NoteWrongAnswer)
	NoteFilterMemo        NoteFilter = NoteFilter(NoteMemo)
)

type SavedNote struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	Question   *Question `json:"question,omitempty"`
	NoteType   NoteType  `json:"note_type"`
	UserAnswer *string   `json:"user_answer,omitempty"`
	Memo       *string   `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NoteInput carries the fields of a note about to be saved.
type NoteInput struct {
	UserID     string
	QuestionID string
	NoteType   NoteType
	UserAnswer *string
	Memo       *string
}

// ── API Request/Response Types ────────────────────────────

type SaveNoteRequest struct {
	QuestionID string   `json:"question_id"`
	NoteType   NoteType `json:"note_type"`
	UserAnswer *string  `json:"user_answer,omitempty"`
	Memo       *string  `json:"memo,omitempty"`
}

type SaveNoteResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type NoteListResponse struct {
	Notes            []SavedNote `json:"notes"`
	Filter           NoteFilter  `json:"filter"`
	Total            int         `json:"total"`
	WrongAnswerCount int         `json:"wrong_answer_count"`
	MemoCount        int         `json:"memo_count"`
}

type SaveWrongAnswersResponse struct {
	Saved   int      `json:"saved"`
	NoteIDs []string `json:"note_ids"`
}
