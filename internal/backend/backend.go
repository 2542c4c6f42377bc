// Package backend defines the data-access capability set the application
// consumes. Each store (relational, document, offline) implements Backend and
// is picked at startup by configuration.
package backend

import (
	"context"
	"errors"

	"github.com/gisa-quiz/backend/internal/models"
)

var (
	// ErrNotConfigured is returned by writes when no store is wired in.
	ErrNotConfigured      = errors.New("backend store not configured")
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
)

// QuestionSource supplies the ordered question bank.
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
}

// QuestionWriter is implemented by stores that accept imported questions.
type QuestionWriter interface {
	InsertQuestions(ctx context.Context, questions []models.Question) (int, error)
}

// Identity covers sign-up, sign-in and profile lookup.
type Identity interface {
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, error)
	// SignIn verifies an email/password pair.
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context, authID string) error
	GetUserProfile(ctx context.Context, authID string) (*models.User, error)
	// EmailByUsername resolves a username for sign-in; ErrUserNotFound when unknown.
	EmailByUsername(ctx context.Context, username string) (string, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// NoteStore persists wrong-answer notes and memos.
type NoteStore interface {
	// FetchNotes returns the user's notes, newest first.
	FetchNotes(ctx context.Context, userID string) ([]models.SavedNote, error)
	SaveNote(ctx context.Context, in models.NoteInput) (string, error)
	// SaveNotes stores every note or none of them. IDs come back in input
	// order. ErrNotFound means a referenced question does not exist. Stores
	// that enforce note ownership report a missing owner as ErrUserNotFound.
	SaveNotes(ctx context.Context, notes []models.NoteInput) ([]string, error)
	// DeleteNote removes a note owned by userID; ErrNotFound otherwise.
	DeleteNote(ctx context.Context, userID, noteID string) error
}

type Backend interface {
	QuestionSource
	Identity
	NoteStore

	Name() string
	Close() error
}
