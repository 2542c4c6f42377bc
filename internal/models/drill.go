package models

// UserAnswer records the option picked for one question of a drill.
type UserAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// QuizResult is derived from the answer list and never stored.
type QuizResult struct {
	TotalQuestions   int          `json:"total_questions"`
	CorrectAnswers   int          `json:"correct_answers"`
	IncorrectAnswers int          `json:"incorrect_answers"`
	Score            int          `json:"score"`
	Answers          []UserAnswer `json:"answers"`
}

type WrongAnswer struct {
	Question   Question   `json:"question"`
	UserAnswer UserAnswer `json:"user_answer"`
}

type Grade struct {
	Band    string `json:"band"`
	Message string `json:"message"`
}

// ── API Request/Response Types ────────────────────────────

type DrillFilterRequest struct {
	Category Category     `json:"category"`
	Type     QuestionType `json:"type"`
}

type DrillAnswerRequest struct {
	Option string `json:"option"`
}

type DrillState struct {
	Phase         string        `json:"phase"`
	Category      Category      `json:"category"`
	Type          QuestionType  `json:"type"`
	SelectedCount int           `json:"selected_count"`
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	Progress      float64       `json:"progress"`
	Current       *QuestionView `json:"current,omitempty"`
	CurrentAnswer *UserAnswer   `json:"current_answer,omitempty"`
	IsLast        bool          `json:"is_last"`
	Answered      int           `json:"answered"`
}

type DrillResultResponse struct {
	Result QuizResult `json:"result"`
	Grade  Grade      `json:"grade"`
}

type WrongAnswerListResponse struct {
	WrongAnswers []WrongAnswer `json:"wrong_answers"`
	Total        int           `json:"total"`
}
