package offline

import (
	"context"
	"errors"
	"testing"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
)

func TestOfflineServesSeed(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	questions, err := b.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) == 0 {
		t.Fatal("expected seed questions")
	}

	questions[0].Question = "mutated"
	again, _ := b.ListQuestions(context.Background())
	if again[0].Question == "mutated" {
		t.Error("ListQuestions must return a copy")
	}
}

func TestOfflineWritesNotConfigured(t *testing.T) {
	b := NewWithQuestions(nil)
	ctx := context.Background()

	if _, err := b.SaveNote(ctx, models.NoteInput{UserID: "u", QuestionID: "q", NoteType: models.NoteMemo}); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("SaveNote err = %v", err)
	}
	if _, err := b.SaveNotes(ctx, []models.NoteInput{{UserID: "u", QuestionID: "q", NoteType: models.NoteMemo}}); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("SaveNotes err = %v", err)
	}
	if err := b.DeleteNote(ctx, "u", "n"); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("DeleteNote err = %v", err)
	}
	if _, err := b.SignIn(ctx, "a@b.c", "secret"); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("SignIn err = %v", err)
	}
	if _, err := b.SignUp(ctx, "a@b.c", "secret", models.Profile{Username: "a"}); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("SignUp err = %v", err)
	}
	if err := b.SignOut(ctx, "x"); err != nil {
		t.Errorf("SignOut err = %v", err)
	}

	notes, err := b.FetchNotes(ctx, "u")
	if err != nil || len(notes) != 0 {
		t.Errorf("FetchNotes = %v, %v; want empty, nil", notes, err)
	}
}
