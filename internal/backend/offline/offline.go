// Package offline is the backend used when no store is configured. Questions
// come from the embedded seed bank; identity and note writes are refused.
package offline

import (
	"context"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
)

type Backend struct {
	questions []models.Question
}

var _ backend.Backend = (*Backend)(nil)

// New loads the seed bank.
func New() (*Backend, error) {
	questions, err := importer.Seed()
	if err != nil {
		return nil, err
	}
	return &Backend{questions: questions}, nil
}

// NewWithQuestions serves a fixed question list.
func NewWithQuestions(questions []models.Question) *Backend {
	return &Backend{questions: questions}
}

func (b *Backend) Name() string { return "offline" }

func (b *Backend) Close() error { return nil }

func (b *Backend) ListQuestions(ctx context.Context) ([]models.Question, error) {
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out, nil
}

func (b *Backend) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, error) {
	return nil, backend.ErrNotConfigured
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	return nil, backend.ErrNotConfigured
}

// SignOut has nothing to revoke.
func (b *Backend) SignOut(ctx context.Context, authID string) error {
	return nil
}

func (b *Backend) GetUserProfile(ctx context.Context, authID string) (*models.User, error) {
	return nil, backend.ErrNotConfigured
}

func (b *Backend) EmailByUsername(ctx context.Context, username string) (string, error) {
	return "", backend.ErrNotConfigured
}

func (b *Backend) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return false, backend.ErrNotConfigured
}

// FetchNotes reads degrade to an empty list.
func (b *Backend) FetchNotes(ctx context.Context, userID string) ([]models.SavedNote, error) {
	return []models.SavedNote{}, nil
}

func (b *Backend) SaveNote(ctx context.Context, in models.NoteInput) (string, error) {
	return "", backend.ErrNotConfigured
}

func (b *Backend) SaveNotes(ctx context.Context, notes []models.NoteInput) ([]string, error) {
	return nil, backend.ErrNotConfigured
}

func (b *Backend) DeleteNote(ctx context.Context, userID, noteID string) error {
	return backend.ErrNotConfigured
}
