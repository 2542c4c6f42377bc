// Package relational is the PostgreSQL backend.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

const (
	noteUserFK     = "saved_notes_user_id_fkey"
	noteQuestionFK = "saved_notes_question_id_fkey"
)

type Store struct {
	db *sql.DB
}

var _ backend.Backend = (*Store)(nil)
var _ backend.QuestionWriter = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "relational" }

func (s *Store) Close() error { return s.db.Close() }

// ── Questions ───────────────────────────────────────────

const questionColumns = `id, category, type, question, options, answer,
	explanation, cheat_key, strategy, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row scanner, q *models.Question) error {
	var strategy sql.NullString
	err := row.Scan(&q.ID, &q.Category, &q.Type, &q.Question, pq.Array(&q.Options),
		&q.Answer, &q.Explanation, &q.CheatKey, &strategy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}
	if strategy.Valid {
		q.Strategy = &strategy.String
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) InsertQuestions(ctx context.Context, questions []models.Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range questions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions
			 (id, category, type, question, options, answer, explanation, cheat_key, strategy, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO UPDATE SET
			   category = EXCLUDED.category, type = EXCLUDED.type, question = EXCLUDED.question,
			   options = EXCLUDED.options, answer = EXCLUDED.answer, explanation = EXCLUDED.explanation,
			   cheat_key = EXCLUDED.cheat_key, strategy = EXCLUDED.strategy, updated_at = EXCLUDED.updated_at`,
			q.ID, q.Category, q.Type, q.Question, pq.Array(q.Options), q.Answer,
			q.Explanation, q.CheatKey, nullString(q.Strategy), q.CreatedAt, q.UpdatedAt,
		)
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

	var u models.User
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, username, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, email, username, name, created_at`,
		uuid.NewString(), strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(profile.Username), strings.TrimSpace(profile.Name),
		string(hash), time.Now().UTC(),
	).Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == "users_username_key" {
				return nil, backend.ErrDuplicateUsername
			}
			return nil, backend.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	u.AuthID = u.ID
	return &u, nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, name, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.Username, &u.Name, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, backend.ErrInvalidCredentials
	}

	u.AuthID = u.ID
	return &u, nil
}

// SignOut is a no-op: tokens are stateless and the session store is cleared
// by the caller.
func (s *Store) SignOut(ctx context.Context, authID string) error {
	return nil
}

func (s *Store) GetUserProfile(ctx context.Context, authID string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, name, created_at FROM users WHERE id = $1`,
		authID,
	).Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	u.AuthID = u.ID
	return &u, nil
}

func (s *Store) EmailByUsername(ctx context.Context, username string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE LOWER(username) = LOWER($1)`,
		strings.TrimSpace(username),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", backend.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup username: %w", err)
	}
	return email, nil
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`,
		strings.TrimSpace(username),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}

// ── Notes ───────────────────────────────────────────────

func (s *Store) FetchNotes(ctx context.Context, userID string) ([]models.SavedNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.question_id, n.note_type, n.user_answer, n.memo, n.created_at,
		        q.id, q.category, q.type, q.question, q.options, q.answer,
		        q.explanation, q.cheat_key, q.strategy, q.created_at, q.updated_at
		 FROM saved_notes n
		 JOIN questions q ON q.id = n.question_id
		 WHERE n.user_id = $1
		 ORDER BY n.created_at DESC, n.seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}
	defer rows.Close()

	notes := []models.SavedNote{}
	for rows.Next() {
		var n models.SavedNote
		var q models.Question
		var userAnswer, memo, strategy sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.QuestionID, &n.NoteType, &userAnswer, &memo, &n.CreatedAt,
			&q.ID, &q.Category, &q.Type, &q.Question, pq.Array(&q.Options), &q.Answer,
			&q.Explanation, &q.CheatKey, &strategy, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if userAnswer.Valid {
			n.UserAnswer = &userAnswer.String
		}
		if memo.Valid {
			n.Memo = &memo.String
		}
		if strategy.Valid {
			q.Strategy = &strategy.String
		}
		n.Question = &q
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) SaveNote(ctx context.Context, in models.NoteInput) (string, error) {
	ids, err := s.SaveNotes(ctx, []models.NoteInput{in})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// SaveNotes inserts the batch in one transaction. Notes of a batch share a
// timestamp; seq keeps their insert order.
func (s *Store) SaveNotes(ctx context.Context, notes []models.NoteInput) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]string, 0, len(notes))
	for _, in := range notes {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO saved_notes (id, user_id, question_id, note_type, user_answer, memo, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, in.UserID, in.QuestionID, in.NoteType, nullString(in.UserAnswer), nullString(in.Memo), now,
		)
		if err != nil {
			return nil, noteInsertError(err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit notes: %w", err)
	}
	return ids, nil
}

// noteInsertError tells a missing question apart from a missing owner.
func noteInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		switch pqErr.Constraint {
		case noteQuestionFK:
			return backend.ErrNotFound
		case noteUserFK:
			return backend.ErrUserNotFound
		}
	}
	return fmt.Errorf("save note: %w", err)
}

func (s *Store) DeleteNote(ctx context.Context, userID, noteID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	)
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

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
