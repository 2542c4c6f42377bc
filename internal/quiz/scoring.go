package quiz

import (
	"math"

	"github.com/gisa-quiz/backend/internal/models"
)

// Score aggregates a drill's answers. totalQuestions must be positive;
// a zero total has no defined percentage and returns ErrNoQuestions.
func Score(answers []models.UserAnswer, totalQuestions int) (models.QuizResult, error) {
	if totalQuestions <= 0 {
		return models.QuizResult{}, ErrNoQuestions
	}

	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	list := make([]models.UserAnswer, len(answers))
	copy(list, answers)

	return models.QuizResult{
		TotalQuestions:   totalQuestions,
		CorrectAnswers:   correct,
		IncorrectAnswers: totalQuestions - correct,
		Score:            int(math.Round(float64(correct) / float64(totalQuestions) * 100)),
		Answers:          list,
	}, nil
}

// Grade maps a percentage score to its result band.
func Grade(score int) models.Grade {
	switch {
	case score >= 80:
		return models.Grade{Band: "pass", Message: "합격권입니다! 훌륭해요!"}
	case score >= 60:
		return models.Grade{Band: "close", Message: "조금만 더 힘내세요!"}
	case score >= 40:
		return models.Grade{Band: "review", Message: "복습이 필요해요!"}
	default:
		return models.Grade{Band: "restart", Message: "기초부터 다시 시작하세요!"}
	}
}
