package importer

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/gisa-quiz/backend/internal/models"
)

//go:embed seed/questions.json
var seedJSON []byte

// Seed returns the built-in question bank used when no store is configured
// and to populate an empty store.
func Seed() ([]models.Question, error) {
	questions, result, err := ParseJSON(bytes.NewReader(seedJSON))
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		return nil, fmt.Errorf("seed question bank invalid: %s", strings.Join(result.Errors, "; "))
	}
	return questions, nil
}
