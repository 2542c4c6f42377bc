package quiz

import (
	"math/rand"

	"github.com/gisa-quiz/backend/internal/models"
)

// Shuffle returns a uniformly random permutation of a copy of questions
// (Fisher-Yates). The input slice is left untouched.
func Shuffle(questions []models.Question) []models.Question {
	shuffled := make([]models.Question, len(questions))
	copy(shuffled, questions)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
