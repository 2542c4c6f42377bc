package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/models"
)

type GeneratedBatch struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type GeneratedQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
	CheatKey    string   `json:"cheat_key"`
	Strategy    string   `json:"strategy,omitempty"`
}

// Answer returns the text of the correct option.
func (q GeneratedQuestion) Answer() string {
	if q.AnswerIndex < 1 || q.AnswerIndex > len(q.Options) {
		return ""
	}
	return q.Options[q.AnswerIndex-1]
}

// Record converts a draft into an import record for the given subject.
func (q GeneratedQuestion) Record(category models.Category, qtype models.QuestionType) importer.Record {
	return importer.Record{
		Category:    string(category),
		Type:        string(qtype),
		Question:    q.Question,
		Options:     q.Options,
		Answer:      q.Answer(),
		Explanation: q.Explanation,
		CheatKey:    q.CheatKey,
		Strategy:    q.Strategy,
	}
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

func ParseResponse(responseBody string) (*GeneratedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	var batch GeneratedBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := validateBatch(&batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func validateBatch(batch *GeneratedBatch) error {
	var errs []string

	if len(batch.Questions) == 0 {
		return &ValidationError{Errors: []string{"no questions in batch"}}
	}

	answerCounts := make(map[int]int)

	for i, q := range batch.Questions {
		qNum := i + 1

		if len(q.Options) != models.OptionCount {
			errs = append(errs, fmt.Sprintf("question %d: expected %d options, got %d", qNum, models.OptionCount, len(q.Options)))
			continue
		}

		seen := make(map[string]bool, len(q.Options))
		for j, o := range q.Options {
			o = strings.TrimSpace(o)
			if o == "" {
				errs = append(errs, fmt.Sprintf("question %d: option %d is empty", qNum, j+1))
			}
			if seen[o] {
				errs = append(errs, fmt.Sprintf("question %d: option %d is a duplicate", qNum, j+1))
			}
			seen[o] = true
		}

		if q.AnswerIndex < 1 || q.AnswerIndex > models.OptionCount {
			errs = append(errs, fmt.Sprintf("question %d: invalid answer_index %d", qNum, q.AnswerIndex))
		}

		qLen := len([]rune(q.Question))
		if qLen < 10 || qLen > 500 {
			errs = append(errs, fmt.Sprintf("question %d: question length %d outside range [10, 500]", qNum, qLen))
		}

		if q.Explanation == "" {
			errs = append(errs, fmt.Sprintf("question %d: empty explanation", qNum))
		}

		if q.CheatKey == "" {
			log.Printf("[generator] WARNING: question %d missing cheat_key", qNum)
		}

		answerCounts[q.AnswerIndex]++
	}

	// Warn (but don't reject) if correct answers are clustered
	for idx, count := range answerCounts {
		if count > 2 && len(batch.Questions) >= 6 && count*2 > len(batch.Questions) {
			log.Printf("[generator] WARNING: answer %d is correct in %d of %d questions", idx, count, len(batch.Questions))
		}
	}

	checkTopicDiversity(batch.Questions)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// checkTopicDiversity warns if any two questions share >60% keyword overlap.
func checkTopicDiversity(questions []GeneratedQuestion) {
	if len(questions) < 2 {
		return
	}

	tokenSets := make([]map[string]bool, len(questions))
	for i, q := range questions {
		tokenSets[i] = tokenize(q.Question)
	}

	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			overlap := jaccardSimilarity(tokenSets[i], tokenSets[j])
			if overlap > 0.60 {
				log.Printf("[generator] WARNING: questions %d and %d have %.0f%% keyword overlap", i+1, j+1, overlap*100)
			}
		}
	}
}

// tokenize keeps words of two or more characters; Korean particles attach to
// their nouns, so shorter tokens are mostly noise.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		if len([]rune(word)) >= 2 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
