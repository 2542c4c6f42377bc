package quiz

import (
	"fmt"

	"github.com/gisa-quiz/backend/internal/models"
)

// Filter narrows the question pool by subject and question type. The "전체"
// value of either field matches everything.
type Filter struct {
	Category models.Category     `json:"category"`
	Type     models.QuestionType `json:"type"`
}

// AllQuestions is the filter a new session starts with.
var AllQuestions = Filter{Category: models.CategoryAll, Type: models.TypeAll}

// Validate rejects values outside the known enums.
func (f Filter) Validate() error {
	if f.Category != models.CategoryAll && !models.ValidCategories[f.Category] {
		return fmt.Errorf("%w: category %q", ErrInvalidFilter, f.Category)
	}
	if f.Type != models.TypeAll && !models.ValidQuestionTypes[f.Type] {
		return fmt.Errorf("%w: type %q", ErrInvalidFilter, f.Type)
	}
	return nil
}

// Matches reports whether q satisfies both predicates.
func (f Filter) Matches(q models.Question) bool {
	if f.Category != models.CategoryAll && q.Category != f.Category {
		return false
	}
	if f.Type != models.TypeAll && q.Type != f.Type {
		return false
	}
	return true
}

// Apply returns the matching questions in source order.
func (f Filter) Apply(questions []models.Question) []models.Question {
	result := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if f.Matches(q) {
			result = append(result, q)
		}
	}
	return result
}

// Normalize maps empty fields to the "all" sentinel.
func (f Filter) Normalize() Filter {
	if f.Category == "" {
		f.Category = models.CategoryAll
	}
	if f.Type == "" {
		f.Type = models.TypeAll
	}
	return f
}
