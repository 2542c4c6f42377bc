// Package importer turns question-bank files (the extractor's JSON output and
// spreadsheets) into validated question records.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gisa-quiz/backend/internal/models"
	"github.com/google/uuid"
)

// Record is one question as it appears in an import file.
type Record struct {
	ID          string   `json:"id,omitempty"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	CheatKey    string   `json:"cheat_key"`
	Strategy    string   `json:"strategy,omitempty"`
}

// Build normalises a record into a question. A numeric answer ("1".."4")
// that is not itself an option selects the option at that position.
func (r Record) Build(now time.Time) (models.Question, error) {
	options := make([]string, len(r.Options))
	for i, o := range r.Options {
		options[i] = strings.TrimSpace(o)
	}

	answer := strings.TrimSpace(r.Answer)
	if n, err := strconv.Atoi(answer); err == nil && !contains(options, answer) {
		if n >= 1 && n <= len(options) {
			answer = options[n-1]
		}
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}

	q := models.Question{
		ID:          id,
		Category:    models.Category(strings.TrimSpace(r.Category)),
		Type:        models.QuestionType(strings.TrimSpace(r.Type)),
		Question:    strings.TrimSpace(r.Question),
		Options:     options,
		Answer:      answer,
		Explanation: strings.TrimSpace(r.Explanation),
		CheatKey:    strings.TrimSpace(r.CheatKey),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s := strings.TrimSpace(r.Strategy); s != "" {
		q.Strategy = &s
	}

	if err := q.Validate(); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// BuildAll converts records, skipping invalid ones. Skipped rows are reported
// in the result with their 1-based position.
func BuildAll(records []Record) ([]models.Question, models.ImportResult) {
	now := time.Now().UTC()
	var result models.ImportResult
	questions := make([]models.Question, 0, len(records))

	for i, rec := range records {
		q, err := rec.Build(now)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		questions = append(questions, q)
	}
	return questions, result
}

// ParseJSON reads a JSON array of records.
func ParseJSON(r io.Reader) ([]models.Question, models.ImportResult, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, models.ImportResult{}, fmt.Errorf("decode question json: %w", err)
	}
	questions, result := BuildAll(records)
	return questions, result, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
