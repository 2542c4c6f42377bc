package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/backend/offline"
	"github.com/gisa-quiz/backend/internal/generator"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/quiz"
)

// memoryBank is a writable question source.
type memoryBank struct {
	mu        sync.Mutex
	questions []models.Question
	listCalls int
}

func (b *memoryBank) ListQuestions(ctx context.Context) ([]models.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out, nil
}

func (b *memoryBank) InsertQuestions(ctx context.Context, questions []models.Question) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions = append(b.questions, questions...)
	return len(questions), nil
}

func seed(t *testing.T) []models.Question {
	t.Helper()
	questions, err := importer.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return questions
}

func TestListFilters(t *testing.T) {
	bank := seed(t)
	svc := NewService(offline.NewWithQuestions(bank), nil)
	ctx := context.Background()

	all, err := svc.List(ctx, quiz.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != len(bank) {
		t.Fatalf("empty filter returned %d questions, want %d", len(all), len(bank))
	}
	for i := range bank {
		if all[i].ID != bank[i].ID {
			t.Fatalf("source order not kept at %d", i)
		}
	}

	machines, err := svc.List(ctx, quiz.Filter{Category: models.CategoryMachines, Type: models.TypeAll})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, q := range machines {
		if q.Category != models.CategoryMachines {
			t.Errorf("question %s has category %s", q.ID, q.Category)
		}
	}

	_, err = svc.List(ctx, quiz.Filter{Category: "물리학"})
	if !errors.Is(err, quiz.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestFilterOptionsCounts(t *testing.T) {
	bank := seed(t)
	svc := NewService(offline.NewWithQuestions(bank), nil)

	resp, err := svc.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}

	if resp.Total != len(bank) {
		t.Errorf("Total = %d, want %d", resp.Total, len(bank))
	}
	if len(resp.Categories) != len(models.Categories)+1 {
		t.Fatalf("expected %d category options, got %d", len(models.Categories)+1, len(resp.Categories))
	}
	if resp.Categories[0].Value != string(models.CategoryAll) || resp.Categories[0].Count != len(bank) {
		t.Errorf("first category option = %+v", resp.Categories[0])
	}

	sum := 0
	for _, o := range resp.Categories[1:] {
		sum += o.Count
	}
	if sum != len(bank) {
		t.Errorf("category counts sum to %d, want %d", sum, len(bank))
	}
}

func TestImportNotConfigured(t *testing.T) {
	svc := NewService(offline.NewWithQuestions(nil), nil)
	_, err := svc.Import(context.Background(), seed(t), models.ImportResult{})
	if !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestImportInvalidatesCache(t *testing.T) {
	bank := &memoryBank{}
	svc := NewService(bank, nil)
	ctx := context.Background()

	pool, _ := svc.Pool(ctx)
	if len(pool) != 0 {
		t.Fatalf("expected empty bank")
	}
	svc.Pool(ctx)
	if bank.listCalls != 1 {
		t.Errorf("expected cached read, backend listed %d times", bank.listCalls)
	}

	result, err := svc.Import(ctx, seed(t)[:3], models.ImportResult{Skipped: 1})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported != 3 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}

	pool, _ = svc.Pool(ctx)
	if len(pool) != 3 {
		t.Errorf("expected 3 questions after import, got %d", len(pool))
	}
}

func TestEnsureSeeded(t *testing.T) {
	bank := &memoryBank{}
	svc := NewService(bank, nil)
	ctx := context.Background()
	questions := seed(t)

	n, err := svc.EnsureSeeded(ctx, questions)
	if err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	if n != len(questions) {
		t.Errorf("seeded %d, want %d", n, len(questions))
	}

	n, _ = svc.EnsureSeeded(ctx, questions)
	if n != 0 {
		t.Errorf("second seed wrote %d questions", n)
	}
}

func TestGenerateWithMock(t *testing.T) {
	bank := &memoryBank{}
	gen := generator.NewGenerator(generator.Options{Mock: true})
	svc := NewService(bank, gen)

	resp, err := svc.Generate(context.Background(), models.GenerateQuestionsRequest{
		Category: models.CategoryPower,
		Type:     models.TypeRote,
		Count:    4,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Unverified drafts land in the flagged band.
	if resp.Generated != 4 || resp.Flagged != 4 || resp.Imported != 4 {
		t.Errorf("resp = generated %d flagged %d imported %d", resp.Generated, resp.Flagged, resp.Imported)
	}
	for _, q := range resp.Questions {
		if q.Category != models.CategoryPower || q.Type != models.TypeRote {
			t.Errorf("question %s has %s/%s", q.ID, q.Category, q.Type)
		}
	}
	if len(bank.questions) != 4 {
		t.Errorf("bank holds %d questions", len(bank.questions))
	}
}

// sequenceLLM answers each call with the next scripted reply.
type sequenceLLM struct {
	replies []string
	calls   int
}

func (s *sequenceLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (*generator.LLMResponse, error) {
	if s.calls >= len(s.replies) {
		return nil, fmt.Errorf("unexpected call %d", s.calls+1)
	}
	reply := s.replies[s.calls]
	s.calls++
	return &generator.LLMResponse{Content: reply, PromptTokens: 100, OutputTokens: 50}, nil
}

func TestGenerateDropsRejectedDrafts(t *testing.T) {
	batch := generator.GeneratedBatch{Questions: []generator.GeneratedQuestion{
		{
			Question:    "변압기의 철손이 1 kW, 전부하 동손이 4 kW일 때 최대 효율이 되는 부하율은?",
			Options:     []string{"1/2", "1/4", "3/4", "1"},
			AnswerIndex: 1,
			Explanation: "최대 효율은 철손과 동손이 같을 때이므로 √(1/4) = 1/2이다.",
			CheatKey:    "m = √(Pi/Pc)",
		},
		{
			Question:    "동기발전기의 병렬운전 조건에 해당하지 않는 것은?",
			Options:     []string{"기전력의 크기", "기전력의 위상", "기전력의 주파수", "기전력의 용량"},
			AnswerIndex: 4,
			Explanation: "용량은 같을 필요가 없다. 크기, 위상, 주파수, 파형이 같아야 한다.",
			CheatKey:    "크위주파",
		},
	}}
	draft, _ := json.Marshal(batch)

	llm := &sequenceLLM{replies: []string{
		string(draft),
		`{"selected_index": 1, "confidence": "high", "reasoning": "ok"}`,
		`{"selected_index": 2, "confidence": "high", "reasoning": "disagree"}`,
	}}

	bank := &memoryBank{}
	svc := NewService(bank, generator.NewWithClient(llm, "test-model"))

	resp, err := svc.Generate(context.Background(), models.GenerateQuestionsRequest{
		Category: models.CategoryMachines,
		Type:     models.TypeFormula,
		Count:    2,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if resp.Passed != 1 || resp.Rejected != 1 || resp.Imported != 1 {
		t.Errorf("passed=%d rejected=%d imported=%d, want 1/1/1", resp.Passed, resp.Rejected, resp.Imported)
	}
	if resp.Questions[0].Answer != "1/2" {
		t.Errorf("imported answer = %q", resp.Questions[0].Answer)
	}
	if resp.PromptTokens != 300 {
		t.Errorf("PromptTokens = %d, want 300", resp.PromptTokens)
	}
	if resp.Model != "test-model" {
		t.Errorf("Model = %q", resp.Model)
	}
}

func TestGenerateValidation(t *testing.T) {
	gen := generator.NewGenerator(generator.Options{Mock: true})

	tests := []struct {
		name string
		svc  *Service
		req  models.GenerateQuestionsRequest
		want error
	}{
		{"no generator", NewService(&memoryBank{}, nil), models.GenerateQuestionsRequest{Category: models.CategoryPower, Type: models.TypeRote}, ErrGeneratorDisabled},
		{"all category", NewService(&memoryBank{}, gen), models.GenerateQuestionsRequest{Category: models.CategoryAll, Type: models.TypeRote}, ErrInvalidRequest},
		{"bad type", NewService(&memoryBank{}, gen), models.GenerateQuestionsRequest{Category: models.CategoryPower, Type: "계산"}, ErrInvalidRequest},
		{"too many", NewService(&memoryBank{}, gen), models.GenerateQuestionsRequest{Category: models.CategoryPower, Type: models.TypeRote, Count: 50}, ErrInvalidRequest},
		{"read only", NewService(offline.NewWithQuestions(nil), gen), models.GenerateQuestionsRequest{Category: models.CategoryPower, Type: models.TypeRote}, backend.ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// ── Handler ───────────────────────────────────────────────

func TestHandlerListQuestions(t *testing.T) {
	h := NewHandler(NewService(offline.NewWithQuestions(seed(t)), nil))

	q := url.Values{"category": {string(models.CategoryRegulations)}}
	rec := httptest.NewRecorder()
	h.ListQuestions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions?"+q.Encode(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp models.QuestionListResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Total != len(resp.Questions) {
		t.Errorf("Total %d does not match %d questions", resp.Total, len(resp.Questions))
	}
	for _, question := range resp.Questions {
		if question.Category != models.CategoryRegulations {
			t.Errorf("unexpected category %s", question.Category)
		}
	}

	rec = httptest.NewRecorder()
	h.ListQuestions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions?type=foo", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid filter status = %d, want 400", rec.Code)
	}
}

func importBody(t *testing.T) []byte {
	t.Helper()
	records := []importer.Record{
		{
			Category: string(models.CategoryCircuit),
			Type:     string(models.TypeFormula),
			Question: "R = 3Ω, X = 4Ω 직렬회로의 역률은?",
			Options:  []string{"0.6", "0.8", "0.75", "1.0"},
			Answer:   "1",
		},
		{Category: "unknown", Type: string(models.TypeRote), Question: "skip me"},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandlerImportJSON(t *testing.T) {
	bank := &memoryBank{}
	h := NewHandler(NewService(bank, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/questions/import", bytes.NewReader(importBody(t)))
	req.Header.Set("Content-Type", "application/json")
	h.ImportQuestions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var result models.ImportResult
	json.NewDecoder(rec.Body).Decode(&result)
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if bank.questions[0].Answer != "0.6" {
		t.Errorf("numeric answer resolved to %q", bank.questions[0].Answer)
	}
}

func TestHandlerImportMultipart(t *testing.T) {
	bank := &memoryBank{}
	h := NewHandler(NewService(bank, nil))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "questions.json")
	fw.Write(importBody(t))
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/questions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.ImportQuestions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(bank.questions) != 1 {
		t.Errorf("bank holds %d questions, want 1", len(bank.questions))
	}
}

func TestHandlerImportReadOnlyBackend(t *testing.T) {
	h := NewHandler(NewService(offline.NewWithQuestions(nil), nil))

	rec := httptest.NewRecorder()
	h.ImportQuestions(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/questions/import", bytes.NewReader(importBody(t))))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
