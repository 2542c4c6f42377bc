// Package document stores users, questions and notes as JSON documents in a
// single SQLite table, one collection per record kind.
package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const (
	collectionUsers     = "users"
	collectionUsernames = "usernames"
	collectionQuestions = "questions"
	collectionNotes     = "saved_notes"
)

type document struct {
	Collection string    `db:"collection"`
	ID         string    `db:"id"`
	Owner      string    `db:"owner"`
	Lookup     string    `db:"lookup"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
}

// userDoc is the stored form of an account. The hash never leaves the package.
type userDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u userDoc) user() *models.User {
	return &models.User{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		AuthID:    u.ID,
		CreatedAt: u.CreatedAt,
	}
}

type Store struct {
	db *sqlx.DB
}

var _ backend.Backend = (*Store)(nil)
var _ backend.QuestionWriter = (*Store)(nil)

// New wraps a migrated SQLite database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "document" }

func (s *Store) Close() error { return s.db.Close() }

// ── Questions ───────────────────────────────────────────

func (s *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var bodies []string
	err := s.db.SelectContext(ctx, &bodies,
		`SELECT body FROM documents WHERE collection = ? ORDER BY rowid`, collectionQuestions)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]models.Question, 0, len(bodies))
	for _, body := range bodies {
		var q models.Question
		if err := json.Unmarshal([]byte(body), &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// InsertQuestions upserts by question ID, keeping the original position of
// questions that already exist.
func (s *Store) InsertQuestions(ctx context.Context, questions []models.Question) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range questions {
		body, err := json.Marshal(q)
		if err != nil {
			return 0, fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, owner, lookup, body, created_at)
			 VALUES (?, ?, '', '', ?, ?)
			 ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
			collectionQuestions, q.ID, string(body), q.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit questions: %w", err)
	}
	return len(questions), nil
}

// ── Identity ────────────────────────────────────────────

func (s *Store) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := userDoc{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(profile.Username),
		Name:         strings.TrimSpace(profile.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	body, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner, lookup, body, created_at) VALUES (?, ?, ?, '', '{}', ?)`,
		collectionUsernames, strings.ToLower(u.Username), u.ID, u.CreatedAt)
	if isConstraint(err) {
		return nil, backend.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("reserve username: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner, lookup, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		collectionUsers, u.ID, u.ID, u.Email, string(body), u.CreatedAt)
	if isConstraint(err) {
		return nil, backend.ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}
	return u.user(), nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.userBy(ctx, "lookup", strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, backend.ErrUserNotFound) {
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, backend.ErrInvalidCredentials
	}
	return u.user(), nil
}

// SignOut is a no-op: tokens are stateless and the session store is cleared
// by the caller.
func (s *Store) SignOut(ctx context.Context, authID string) error {
	return nil
}

func (s *Store) GetUserProfile(ctx context.Context, authID string) (*models.User, error) {
	u, err := s.userBy(ctx, "id", authID)
	if err != nil {
		return nil, err
	}
	return u.user(), nil
}

func (s *Store) EmailByUsername(ctx context.Context, username string) (string, error) {
	var owner string
	err := s.db.GetContext(ctx, &owner,
		`SELECT owner FROM documents WHERE collection = ? AND id = ?`,
		collectionUsernames, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return "", backend.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup username: %w", err)
	}

	u, err := s.userBy(ctx, "id", owner)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?`,
		collectionUsernames, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// userBy loads a user document by id or by email lookup key.
func (s *Store) userBy(ctx context.Context, column, value string) (*userDoc, error) {
	var doc document
	query := fmt.Sprintf(`SELECT collection, id, owner, lookup, body, created_at
		FROM documents WHERE collection = ? AND %s = ?`, column)
	err := s.db.GetContext(ctx, &doc, query, collectionUsers, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var u userDoc
	if err := json.Unmarshal([]byte(doc.Body), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// ── Notes ───────────────────────────────────────────────

func (s *Store) FetchNotes(ctx context.Context, userID string) ([]models.SavedNote, error) {
	var docs []document
	err := s.db.SelectContext(ctx, &docs,
		`SELECT collection, id, owner, lookup, body, created_at FROM documents
		 WHERE collection = ? AND owner = ?
		 ORDER BY created_at DESC, rowid DESC`,
		collectionNotes, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}

	notes := make([]models.SavedNote, 0, len(docs))
	questionIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		var n models.SavedNote
		if err := json.Unmarshal([]byte(d.Body), &n); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		notes = append(notes, n)
		questionIDs = append(questionIDs, n.QuestionID)
	}
	if len(notes) == 0 {
		return notes, nil
	}

	questions, err := s.questionsByID(ctx, questionIDs)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if q, ok := questions[notes[i].QuestionID]; ok {
			notes[i].Question = &q
		}
	}
	return notes, nil
}

func (s *Store) questionsByID(ctx context.Context, ids []string) (map[string]models.Question, error) {
	query, args, err := sqlx.In(
		`SELECT body FROM documents WHERE collection = ? AND id IN (?)`,
		collectionQuestions, ids)
	if err != nil {
		return nil, fmt.Errorf("build question query: %w", err)
	}

	var bodies []string
	if err := s.db.SelectContext(ctx, &bodies, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load note questions: %w", err)
	}

	out := make(map[string]models.Question, len(bodies))
	for _, body := range bodies {
		var q models.Question
		if err := json.Unmarshal([]byte(body), &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		out[q.ID] = q
	}
	return out, nil
}

func (s *Store) SaveNote(ctx context.Context, in models.NoteInput) (string, error) {
	ids, err := s.SaveNotes(ctx, []models.NoteInput{in})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// SaveNotes writes the batch in one transaction. Notes of a batch share a
// timestamp and FetchNotes breaks the tie by rowid.
func (s *Store) SaveNotes(ctx context.Context, notes []models.NoteInput) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]string, 0, len(notes))
	for _, in := range notes {
		var exists int
		err := tx.GetContext(ctx, &exists,
			`SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?`,
			collectionQuestions, in.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("check question: %w", err)
		}
		if exists == 0 {
			return nil, backend.ErrNotFound
		}

		note := models.SavedNote{
			ID:         uuid.NewString(),
			UserID:     in.UserID,
			QuestionID: in.QuestionID,
			NoteType:   in.NoteType,
			UserAnswer: in.UserAnswer,
			Memo:       in.Memo,
			CreatedAt:  now,
		}
		body, err := json.Marshal(note)
		if err != nil {
			return nil, fmt.Errorf("encode note: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, owner, lookup, body, created_at) VALUES (?, ?, ?, '', ?, ?)`,
			collectionNotes, note.ID, note.UserID, string(body), note.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("save note: %w", err)
		}
		ids = append(ids, note.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit notes: %w", err)
	}
	return ids, nil
}

func (s *Store) DeleteNote(ctx context.Context, userID, noteID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? AND owner = ?`,
		collectionNotes, noteID, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
