package notes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/backend/document"
	"github.com/gisa-quiz/backend/internal/backend/offline"
	"github.com/gisa-quiz/backend/internal/database"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/middleware"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/sessions"
	"github.com/gorilla/mux"
)

type fixture struct {
	store     *document.Store
	service   *Service
	user      *models.User
	questions []models.Question
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := database.MigrateSQLite(db); err != nil {
		t.Fatalf("MigrateSQLite: %v", err)
	}
	store := document.New(db)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	questions, err := importer.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := store.InsertQuestions(ctx, questions); err != nil {
		t.Fatalf("InsertQuestions: %v", err)
	}

	user, err := store.SignUp(ctx, "kim@example.com", "secret1", models.Profile{Username: "kim", Name: "김기사"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	return &fixture{store: store, service: NewService(store), user: user, questions: questions}
}

func strPtr(s string) *string { return &s }

func TestSaveValidation(t *testing.T) {
	svc := NewService(offline.NewWithQuestions(nil))

	tests := []struct {
		name string
		in   models.NoteInput
	}{
		{"missing question", models.NoteInput{UserID: "u", NoteType: models.NoteMemo, Memo: strPtr("x")}},
		{"unknown type", models.NoteInput{UserID: "u", QuestionID: "q", NoteType: "bookmark"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidNote) {
				t.Errorf("expected ErrInvalidNote, got %v", err)
			}
		})
	}
}

func TestSaveNoteWithoutText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user.ID
	q := f.questions[0]

	memoID, err := f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: q.ID, NoteType: models.NoteMemo, UserAnswer: strPtr(q.Options[2])})
	if err != nil {
		t.Fatalf("memo with only a selection: %v", err)
	}
	if _, err := f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: q.ID, NoteType: models.NoteWrongAnswer}); err != nil {
		t.Fatalf("wrong answer without selection: %v", err)
	}

	memos, err := f.service.Fetch(ctx, uid, models.NoteFilterMemo)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if memos.Total != 1 || memos.Notes[0].ID != memoID {
		t.Fatalf("memo list = %+v", memos.Notes)
	}
	n := memos.Notes[0]
	if n.Memo != nil {
		t.Errorf("memo text = %q, want none", *n.Memo)
	}
	if n.UserAnswer == nil || *n.UserAnswer != q.Options[2] {
		t.Errorf("user answer = %v, want %q", n.UserAnswer, q.Options[2])
	}
}

func TestNotConfiguredStore(t *testing.T) {
	svc := NewService(offline.NewWithQuestions(nil))
	ctx := context.Background()

	resp, err := svc.Fetch(ctx, "u", models.NoteFilterAll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Total != 0 || resp.Notes == nil {
		t.Errorf("expected empty non-nil list, got %+v", resp)
	}

	_, err = svc.Save(ctx, models.NoteInput{UserID: "u", QuestionID: "q", NoteType: models.NoteMemo, Memo: strPtr("메모")})
	if !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFetchFilterAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user.ID

	f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: f.questions[0].ID, NoteType: models.NoteWrongAnswer, UserAnswer: strPtr(f.questions[0].Options[1])})
	f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: f.questions[1].ID, NoteType: models.NoteMemo, Memo: strPtr("√3 빠뜨리지 말 것")})
	f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: f.questions[2].ID, NoteType: models.NoteWrongAnswer, UserAnswer: strPtr(f.questions[2].Options[0])})

	tests := []struct {
		filter models.NoteFilter
		want   int
	}{
		{models.NoteFilterAll, 3},
		{"", 3},
		{models.NoteFilterWrongAnswer, 2},
		{models.NoteFilterMemo, 1},
	}

	for _, tt := range tests {
		resp, err := f.service.Fetch(ctx, uid, tt.filter)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", tt.filter, err)
		}
		if resp.Total != tt.want {
			t.Errorf("Fetch(%q) returned %d notes, want %d", tt.filter, resp.Total, tt.want)
		}
		if resp.WrongAnswerCount != 2 || resp.MemoCount != 1 {
			t.Errorf("counts = %d/%d, want 2/1", resp.WrongAnswerCount, resp.MemoCount)
		}
	}

	if _, err := f.service.Fetch(ctx, uid, "bookmark"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestDeletedNoteDisappears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.user.ID

	id, err := f.service.Save(ctx, models.NoteInput{UserID: uid, QuestionID: f.questions[0].ID, NoteType: models.NoteMemo, Memo: strPtr("다시 보기")})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	before, _ := f.service.Fetch(ctx, uid, models.NoteFilterMemo)
	if before.Total != 1 {
		t.Fatalf("expected 1 memo before delete, got %d", before.Total)
	}

	if err := f.service.Delete(ctx, uid, id, false); !errors.Is(err, ErrConfirmRequired) {
		t.Fatalf("unconfirmed delete: expected ErrConfirmRequired, got %v", err)
	}
	if err := f.service.Delete(ctx, "someone-else", id, true); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := f.service.Delete(ctx, uid, id, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, _ := f.service.Fetch(ctx, uid, models.NoteFilterAll)
	for _, n := range all.Notes {
		if n.ID == id {
			t.Error("deleted note still returned by fetch")
		}
	}
	if len(Filter(all.Notes, models.NoteFilterMemo)) != 0 {
		t.Error("deleted note still present in filtered list")
	}
}

func TestSaveWrongAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wrong := []models.WrongAnswer{
		{Question: f.questions[3], UserAnswer: models.UserAnswer{QuestionID: f.questions[3].ID, SelectedAnswer: "x"}},
		{Question: f.questions[4], UserAnswer: models.UserAnswer{QuestionID: f.questions[4].ID, SelectedAnswer: "y"}},
	}
	resp, err := f.service.SaveWrongAnswers(ctx, f.user.ID, wrong)
	if err != nil {
		t.Fatalf("SaveWrongAnswers: %v", err)
	}
	if resp.Saved != 2 || len(resp.NoteIDs) != 2 {
		t.Errorf("resp = %+v", resp)
	}

	list, _ := f.service.Fetch(ctx, f.user.ID, models.NoteFilterWrongAnswer)
	if list.Total != 2 {
		t.Fatalf("expected 2 wrong-answer notes, got %d", list.Total)
	}
	for _, n := range list.Notes {
		if n.Question == nil {
			t.Errorf("note %s has no question snapshot", n.ID)
		}
	}
}

// ── Handler ───────────────────────────────────────────────

func authed(r *http.Request, user models.User) *http.Request {
	c := sessions.NewStore().Open(user)
	return r.WithContext(middleware.WithClient(r.Context(), c))
}

func TestHandlerSaveAndDelete(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.service)

	body := `{"question_id":"` + f.questions[0].ID + `","note_type":"memo","memo":"공식 암기"}`
	rec := httptest.NewRecorder()
	h.SaveNote(rec, authed(httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body)), *f.user))
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body)
	}
	var saved models.SaveNoteResponse
	json.NewDecoder(rec.Body).Decode(&saved)

	rec = httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/notes/"+saved.ID, nil), *f.user)
	h.DeleteNote(rec, mux.SetURLVars(req, map[string]string{"id": saved.ID}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete without confirm status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = authed(httptest.NewRequest(http.MethodDelete, "/api/v1/notes/"+saved.ID+"?confirm=true", nil), *f.user)
	h.DeleteNote(rec, mux.SetURLVars(req, map[string]string{"id": saved.ID}))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, body %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ListNotes(rec, authed(httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil), *f.user))
	var list models.NoteListResponse
	json.NewDecoder(rec.Body).Decode(&list)
	if list.Total != 0 {
		t.Errorf("expected empty list after delete, got %d", list.Total)
	}
}

func TestHandlerSaveUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.service)

	body := `{"question_id":"missing","note_type":"memo","memo":"x"}`
	rec := httptest.NewRecorder()
	h.SaveNote(rec, authed(httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body)), *f.user))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ownerlessStore fails every write the way a store with an owner constraint
// does once the account is gone.
type ownerlessStore struct {
	backend.NoteStore
}

func (ownerlessStore) SaveNote(ctx context.Context, in models.NoteInput) (string, error) {
	return "", backend.ErrUserNotFound
}

func TestHandlerSaveForMissingUser(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(NewService(ownerlessStore{}))

	body := `{"question_id":"` + f.questions[0].ID + `","note_type":"memo","memo":"x"}`
	rec := httptest.NewRecorder()
	h.SaveNote(rec, authed(httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body)), *f.user))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandlerRequiresClient(t *testing.T) {
	h := NewHandler(NewService(offline.NewWithQuestions(nil)))
	rec := httptest.NewRecorder()
	h.ListNotes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSaveWrongAnswersIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := f.questions[4]
	missing.ID = "missing"
	wrong := []models.WrongAnswer{
		{Question: f.questions[3], UserAnswer: models.UserAnswer{QuestionID: f.questions[3].ID, SelectedAnswer: "x"}},
		{Question: missing, UserAnswer: models.UserAnswer{QuestionID: missing.ID, SelectedAnswer: "y"}},
	}
	resp, err := f.service.SaveWrongAnswers(ctx, f.user.ID, wrong)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if resp != nil {
		t.Errorf("failed save returned %+v", resp)
	}

	list, err := f.service.Fetch(ctx, f.user.ID, models.NoteFilterAll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("failed batch left %d notes", list.Total)
	}
}

func TestSaveWrongAnswersEmpty(t *testing.T) {
	svc := NewService(offline.NewWithQuestions(nil))

	resp, err := svc.SaveWrongAnswers(context.Background(), "u", nil)
	if err != nil {
		t.Fatalf("SaveWrongAnswers: %v", err)
	}
	if resp.Saved != 0 || resp.NoteIDs == nil {
		t.Errorf("resp = %+v", resp)
	}
}
