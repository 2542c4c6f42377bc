package relational

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/database"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// These tests need a disposable PostgreSQL database, e.g.
// TEST_DATABASE_DSN="host=localhost user=gisa_user password=gisa_password dbname=gisa_test sslmode=disable"
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	if err := database.MigratePostgres(dsn); err != nil {
		t.Fatalf("MigratePostgres: %v", err)
	}
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	s := New(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRelationalIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	username := "user" + suffix
	email := username + "@example.com"

	u, err := s.SignUp(ctx, email, "secret1", models.Profile{Username: username, Name: "테스트"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := s.SignUp(ctx, "x"+email, "secret1", models.Profile{Username: username}); !errors.Is(err, backend.ErrDuplicateUsername) {
		t.Errorf("duplicate username err = %v", err)
	}
	if _, err := s.SignUp(ctx, email, "secret1", models.Profile{Username: "x" + username}); !errors.Is(err, backend.ErrDuplicateEmail) {
		t.Errorf("duplicate email err = %v", err)
	}

	got, err := s.EmailByUsername(ctx, username)
	if err != nil || got != email {
		t.Errorf("EmailByUsername = %q, %v", got, err)
	}
	if _, err := s.SignIn(ctx, email, "nope"); !errors.Is(err, backend.ErrInvalidCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	signedIn, err := s.SignIn(ctx, email, "secret1")
	if err != nil || signedIn.ID != u.ID {
		t.Fatalf("SignIn = %+v, %v", signedIn, err)
	}
}

func TestRelationalNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	u, err := s.SignUp(ctx, "notes"+suffix+"@example.com", "secret1", models.Profile{Username: "notes" + suffix})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	now := time.Now().UTC()
	q := models.Question{
		ID: "rel-" + suffix, Category: models.CategoryPower, Type: models.TypeRote,
		Question: "q", Options: []string{"a", "b", "c", "d"}, Answer: "a",
		CreatedAt: now, UpdatedAt: now,
	}
	if _, err := s.InsertQuestions(ctx, []models.Question{q}); err != nil {
		t.Fatalf("InsertQuestions: %v", err)
	}

	memo := "memo"
	id, err := s.SaveNote(ctx, models.NoteInput{UserID: u.ID, QuestionID: q.ID, NoteType: models.NoteMemo, Memo: &memo})
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	notes, err := s.FetchNotes(ctx, u.ID)
	if err != nil || len(notes) != 1 || notes[0].Question == nil {
		t.Fatalf("FetchNotes = %+v, %v", notes, err)
	}
	if len(notes[0].Question.Options) != 4 {
		t.Errorf("options not round-tripped: %v", notes[0].Question.Options)
	}

	if err := s.DeleteNote(ctx, "other", id); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("foreign delete err = %v", err)
	}
	if err := s.DeleteNote(ctx, u.ID, id); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	notes, _ = s.FetchNotes(ctx, u.ID)
	if len(notes) != 0 {
		t.Errorf("expected no notes after delete, got %d", len(notes))
	}
}

func TestNoteInsertError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing question", &pq.Error{Code: foreignKeyViolation, Constraint: noteQuestionFK}, backend.ErrNotFound},
		{"missing owner", &pq.Error{Code: foreignKeyViolation, Constraint: noteUserFK}, backend.ErrUserNotFound},
		{"wrapped", fmt.Errorf("exec: %w", &pq.Error{Code: foreignKeyViolation, Constraint: noteQuestionFK}), backend.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := noteInsertError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("noteInsertError = %v, want %v", got, tt.want)
			}
		})
	}

	other := noteInsertError(&pq.Error{Code: foreignKeyViolation, Constraint: "some_other_fkey"})
	if errors.Is(other, backend.ErrNotFound) || errors.Is(other, backend.ErrUserNotFound) {
		t.Errorf("unrelated constraint mapped to %v", other)
	}
	check := noteInsertError(&pq.Error{Code: "23514", Constraint: "saved_notes_note_type_check"})
	if errors.Is(check, backend.ErrNotFound) {
		t.Errorf("check violation mapped to not found")
	}
}

func TestRelationalSaveNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	u, err := s.SignUp(ctx, "batch"+suffix+"@example.com", "secret1", models.Profile{Username: "batch" + suffix})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	now := time.Now().UTC()
	q := models.Question{
		ID: "batch-" + suffix, Category: models.CategoryPower, Type: models.TypeRote,
		Question: "q", Options: []string{"a", "b", "c", "d"}, Answer: "a",
		CreatedAt: now, UpdatedAt: now,
	}
	if _, err := s.InsertQuestions(ctx, []models.Question{q}); err != nil {
		t.Fatalf("InsertQuestions: %v", err)
	}

	a, b := "a", "b"
	_, err = s.SaveNotes(ctx, []models.NoteInput{
		{UserID: u.ID, QuestionID: q.ID, NoteType: models.NoteWrongAnswer, UserAnswer: &a},
		{UserID: u.ID, QuestionID: "missing-" + suffix, NoteType: models.NoteWrongAnswer, UserAnswer: &b},
	})
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("missing question err = %v", err)
	}
	if notes, _ := s.FetchNotes(ctx, u.ID); len(notes) != 0 {
		t.Fatalf("failed batch left %d notes", len(notes))
	}

	if _, err := s.SaveNote(ctx, models.NoteInput{UserID: "ghost-" + suffix, QuestionID: q.ID, NoteType: models.NoteMemo}); !errors.Is(err, backend.ErrUserNotFound) {
		t.Errorf("unknown owner err = %v", err)
	}

	ids, err := s.SaveNotes(ctx, []models.NoteInput{
		{UserID: u.ID, QuestionID: q.ID, NoteType: models.NoteWrongAnswer, UserAnswer: &a},
		{UserID: u.ID, QuestionID: q.ID, NoteType: models.NoteWrongAnswer, UserAnswer: &b},
	})
	if err != nil || len(ids) != 2 {
		t.Fatalf("SaveNotes = %v, %v", ids, err)
	}

	notes, err := s.FetchNotes(ctx, u.ID)
	if err != nil || len(notes) != 2 {
		t.Fatalf("FetchNotes = %d notes, %v", len(notes), err)
	}
	if notes[0].ID != ids[1] || notes[1].ID != ids[0] {
		t.Errorf("same-timestamp notes not newest first: got %s, %s", notes[0].ID, notes[1].ID)
	}
}
