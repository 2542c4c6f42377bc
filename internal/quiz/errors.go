package quiz

import "errors"

var (
	ErrEmptySelection    = errors.New("no questions match the selected filters")
	ErrInvalidTransition = errors.New("action not allowed in the current phase")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrUnknownOption     = errors.New("option is not one of the question's choices")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrNoQuestions       = errors.New("score is undefined for zero questions")
)
