package questions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/generator"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/quiz"
)

const (
	defaultGenerateCount = 5
	maxGenerateCount     = 20
)

var (
	ErrInvalidRequest    = errors.New("invalid generation request")
	ErrGeneratorDisabled = errors.New("question generator not configured")
	ErrNothingToImport   = errors.New("no valid questions to import")
)

type Service struct {
	store             *Store
	writer            backend.QuestionWriter
	generator         *generator.Generator
	validator         *generator.Validator
	validationEnabled bool
	now               func() time.Time
}

// NewService builds the question service. Imports are only possible when
// source also implements backend.QuestionWriter; gen may be nil.
func NewService(source backend.QuestionSource, gen *generator.Generator) *Service {
	s := &Service{
		store:     NewStore(source),
		generator: gen,
		now:       time.Now,
	}

	if w, ok := source.(backend.QuestionWriter); ok {
		s.writer = w
	}

	// Mock drafts always agree with themselves, so verifying them is noise.
	if gen != nil && !gen.IsMock() {
		s.validator = generator.NewValidator(gen.Client())
		s.validationEnabled = true
	}

	log.Printf("[questions] writable=%v generator=%v validation=%v",
		s.writer != nil, gen != nil, s.validationEnabled)

	return s
}

// ── Browsing ──────────────────────────────────────────────

// Pool returns the whole bank in source order.
func (s *Service) Pool(ctx context.Context) ([]models.Question, error) {
	return s.store.All(ctx)
}

// List returns the questions matching f in source order.
func (s *Service) List(ctx context.Context, f quiz.Filter) ([]models.Question, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return f.Apply(all), nil
}

// FilterOptions lists every category and type with the number of questions
// under it. The "전체" entry comes first and carries the bank size.
func (s *Service) FilterOptions(ctx context.Context) (*models.FilterOptionsResponse, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	byCategory := make(map[models.Category]int)
	byType := make(map[models.QuestionType]int)
	for _, q := range all {
		byCategory[q.Category]++
		byType[q.Type]++
	}

	resp := &models.FilterOptionsResponse{
		Categories: []models.FilterOption{{Value: string(models.CategoryAll), Count: len(all)}},
		Types:      []models.FilterOption{{Value: string(models.TypeAll), Count: len(all)}},
		Total:      len(all),
	}
	for _, c := range models.Categories {
		resp.Categories = append(resp.Categories, models.FilterOption{Value: string(c), Count: byCategory[c]})
	}
	for _, t := range models.QuestionTypes {
		resp.Types = append(resp.Types, models.FilterOption{Value: string(t), Count: byType[t]})
	}

	return resp, nil
}

// ── Import ────────────────────────────────────────────────

// Import writes parsed questions to the backend. result carries the parse
// outcome and is returned with Imported filled in.
func (s *Service) Import(ctx context.Context, questions []models.Question, result models.ImportResult) (models.ImportResult, error) {
	if s.writer == nil {
		return result, backend.ErrNotConfigured
	}
	if len(questions) == 0 {
		return result, ErrNothingToImport
	}

	n, err := s.writer.InsertQuestions(ctx, questions)
	if err != nil {
		return result, fmt.Errorf("insert questions: %w", err)
	}
	s.store.Invalidate()

	result.Imported = n
	log.Printf("[questions] imported %d questions (%d skipped)", n, result.Skipped)
	return result, nil
}

// EnsureSeeded inserts seed into an empty writable store. It returns the
// number of questions written.
func (s *Service) EnsureSeeded(ctx context.Context, seed []models.Question) (int, error) {
	if s.writer == nil {
		return 0, nil
	}

	existing, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("check question bank: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	result, err := s.Import(ctx, seed, models.ImportResult{})
	if err != nil {
		return 0, err
	}
	return result.Imported, nil
}

// ── Generation ────────────────────────────────────────────

// Generate drafts new questions with the LLM, verifies them and imports the
// ones that pass the quality gate.
func (s *Service) Generate(ctx context.Context, req models.GenerateQuestionsRequest) (*models.GenerateQuestionsResponse, error) {
	if s.generator == nil {
		return nil, ErrGeneratorDisabled
	}
	if !models.ValidCategories[req.Category] {
		return nil, fmt.Errorf("%w: category %q", ErrInvalidRequest, req.Category)
	}
	if !models.ValidQuestionTypes[req.Type] {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidRequest, req.Type)
	}
	if req.Count <= 0 {
		req.Count = defaultGenerateCount
	}
	if req.Count > maxGenerateCount {
		return nil, fmt.Errorf("%w: count must be at most %d", ErrInvalidRequest, maxGenerateCount)
	}
	if s.writer == nil {
		return nil, backend.ErrNotConfigured
	}

	start := s.now()

	// ── Stage 1: Draft ───────────────────────────────────────
	batch, llmResp, err := s.generator.GenerateQuestions(ctx, req.Category, req.Type, req.Count)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	resp := &models.GenerateQuestionsResponse{
		Category:  req.Category,
		Type:      req.Type,
		Requested: req.Count,
		Generated: len(batch.Questions),
		Model:     s.generator.ModelName(),
	}
	if llmResp != nil {
		resp.PromptTokens = llmResp.PromptTokens
		resp.OutputTokens = llmResp.OutputTokens
	}

	log.Printf("[questions] drafted %d questions for %s/%s", len(batch.Questions), req.Category, req.Type)

	// ── Stage 2: Verification ────────────────────────────────
	var validation *generator.BatchValidationResult
	if s.validationEnabled && s.validator != nil {
		validation, err = s.validator.ValidateBatch(ctx, batch)
		if err != nil {
			log.Printf("[questions] WARN: verification failed: %v, keeping drafts unvalidated", err)
			validation = nil
		} else {
			resp.PromptTokens += validation.TotalPromptTokens
			resp.OutputTokens += validation.TotalOutputTokens
		}
	}

	// ── Quality gate ─────────────────────────────────────────
	var records []importer.Record
	for i, q := range batch.Questions {
		var vr *generator.ValidationResult
		if validation != nil && i < len(validation.Results) {
			r := validation.Results[i]
			vr = &r
		}

		score := generator.ComputeQualityScore(vr, generator.ComputeStructuralScore(q))
		switch generator.ClassifyQuality(score) {
		case "reject":
			resp.Rejected++
			log.Printf("[questions] rejected draft %d (score %.2f)", i+1, score)
			continue
		case "flagged":
			resp.Flagged++
		default:
			resp.Passed++
		}
		records = append(records, q.Record(req.Category, req.Type))
	}

	questions, result := importer.BuildAll(records)
	resp.Errors = result.Errors

	if len(questions) > 0 {
		imported, err := s.Import(ctx, questions, result)
		if err != nil {
			return nil, err
		}
		resp.Imported = imported.Imported
	}

	resp.Questions = questions
	if resp.Questions == nil {
		resp.Questions = []models.Question{}
	}
	resp.ElapsedMS = s.now().Sub(start).Milliseconds()

	log.Printf("[questions] generation complete: passed=%d flagged=%d rejected=%d imported=%d",
		resp.Passed, resp.Flagged, resp.Rejected, resp.Imported)

	return resp, nil
}
