package models

import (
	"fmt"
	"strings"
	"time"
)

// OptionCount is the number of choices every exam question carries.
const OptionCount = 4

type Category string

const (
	CategoryAll         Category = "전체"
	CategoryCircuit     Category = "회로이론 및 제어공학"
	CategoryMagnetism   Category = "전기자기학"
	CategoryMachines    Category = "전기기기"
	CategoryPower       Category = "전력공학"
	CategoryRegulations Category = "전기설비기술기준"
)

// Categories lists the subjects in exam order, without the "all" sentinel.
var Categories = []Category{
	CategoryCircuit,
	CategoryMagnetism,
	CategoryMachines,
	CategoryPower,
	CategoryRegulations,
}

var ValidCategories = map[Category]bool{
	CategoryCircuit:     true,
	CategoryMagnetism:   true,
	CategoryMachines:    true,
	CategoryPower:       true,
	CategoryRegulations: true,
}

type QuestionType string

const (
	TypeAll     QuestionType = "전체"
	TypeRote    QuestionType = "암기"
	TypeFormula QuestionType = "공식"
)

var QuestionTypes = []QuestionType{TypeRote, TypeFormula}

var ValidQuestionTypes = map[QuestionType]bool{
	TypeRote:    true,
	TypeFormula: true,
}

// ── Core Structs ───────────────────────────────────────

type Question struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Options     []string     `json:"options"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
	CheatKey    string       `json:"cheat_key"`
	Strategy    *string      `json:"strategy,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a question record.
func (q Question) Validate() error {
	var errs []string

	if !ValidCategories[q.Category] {
		errs = append(errs, fmt.Sprintf("invalid category %q", q.Category))
	}
	if !ValidQuestionTypes[q.Type] {
		errs = append(errs, fmt.Sprintf("invalid type %q", q.Type))
	}
	if strings.TrimSpace(q.Question) == "" {
		errs = append(errs, "question text is empty")
	}
	if len(q.Options) != OptionCount {
		errs = append(errs, fmt.Sprintf("expected %d options, got %d", OptionCount, len(q.Options)))
	}

	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			errs = append(errs, fmt.Sprintf("option %d is empty", i+1))
			continue
		}
		if seen[o] {
			errs = append(errs, fmt.Sprintf("option %d duplicates %q", i+1, o))
		}
		seen[o] = true
	}

	if !q.HasOption(q.Answer) {
		errs = append(errs, "answer is not one of the options")
	}

	if len(errs) > 0 {
		return &QuestionError{Errors: errs}
	}
	return nil
}

type QuestionError struct {
	Errors []string
}

func (e *QuestionError) Error() string {
	return fmt.Sprintf("invalid question: %s", strings.Join(e.Errors, "; "))
}

// QuestionView is a question as shown during a drill. Answer, explanation,
// cheat key and strategy stay hidden until the question has been answered.
type QuestionView struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Options     []string     `json:"options"`
	Answer      string       `json:"answer,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	CheatKey    string       `json:"cheat_key,omitempty"`
	Strategy    *string      `json:"strategy,omitempty"`
}

func (q Question) View(reveal bool) QuestionView {
	v := QuestionView{
		ID:       q.ID,
		Category: q.Category,
		Type:     q.Type,
		Question: q.Question,
		Options:  q.Options,
	}
	if reveal {
		v.Answer = q.Answer
		v.Explanation = q.Explanation
		v.CheatKey = q.CheatKey
		v.Strategy = q.Strategy
	}
	return v
}

// ── API Request/Response Types ────────────────────────────

type QuestionListResponse struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
}

type FilterOption struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FilterOptionsResponse struct {
	Categories []FilterOption `json:"categories"`
	Types      []FilterOption `json:"types"`
	Total      int            `json:"total"`
}

type GenerateQuestionsRequest struct {
	Category Category     `json:"category"`
	Type     QuestionType `json:"type"`
	Count    int          `json:"count"`
}

type GenerateQuestionsResponse struct {
	Category     Category     `json:"category"`
	Type         QuestionType `json:"type"`
	Requested    int          `json:"requested"`
	Generated    int          `json:"generated"`
	Passed       int          `json:"passed"`
	Flagged      int          `json:"flagged"`
	Rejected     int          `json:"rejected"`
	Imported     int          `json:"imported"`
	Questions    []Question   `json:"questions"`
	Errors       []string     `json:"errors,omitempty"`
	Model        string       `json:"model"`
	PromptTokens int          `json:"prompt_tokens"`
	OutputTokens int          `json:"output_tokens"`
	ElapsedMS    int64        `json:"elapsed_ms"`
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
