package quiz

import (
	"fmt"

	"github.com/gisa-quiz/backend/internal/models"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseAnswered  Phase = "answered"
	PhaseFinished  Phase = "finished"
	PhaseReviewing Phase = "reviewing"
)

// Session drives one drill from filter selection to the result screen.
//
//	idle --Start--> running --Submit--> answered --Next--> running | finished
//	finished <--ShowReview/CloseReview--> reviewing
//	any --Restart--> idle
//
// A Session is not safe for concurrent use; callers serialise access.
// Rejected actions return an error and leave the session unchanged.
type Session struct {
	phase     Phase
	filter    Filter
	questions []models.Question
	index     int
	answers   []models.UserAnswer
	answered  map[string]int
}

func NewSession() *Session {
	return &Session{
		phase:    PhaseIdle,
		filter:   AllQuestions,
		answered: make(map[string]int),
	}
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Filter() Filter {
	return s.filter
}

// Index is the zero-based position of the current question.
func (s *Session) Index() int {
	return s.index
}

// Total is the number of questions in the running drill (zero while idle).
func (s *Session) Total() int {
	return len(s.questions)
}

// Answers returns a copy of the recorded answers in submission order.
func (s *Session) Answers() []models.UserAnswer {
	out := make([]models.UserAnswer, len(s.answers))
	copy(out, s.answers)
	return out
}

// SetFilter changes the subject/type filter. Only allowed while idle.
func (s *Session) SetFilter(f Filter) error {
	if s.phase != PhaseIdle {
		return s.reject("set filter")
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}
	s.filter = f
	return nil
}

// Start narrows pool with the current filter, shuffles it and presents the
// first question. An empty selection is rejected and the session stays idle.
func (s *Session) Start(pool []models.Question) error {
	if s.phase != PhaseIdle {
		return s.reject("start")
	}

	selected := dedupe(s.filter.Apply(pool))
	if len(selected) == 0 {
		return ErrEmptySelection
	}

	s.questions = Shuffle(selected)
	s.index = 0
	s.answers = nil
	s.answered = make(map[string]int)
	s.phase = PhaseRunning
	return nil
}

// Current returns the question under the pointer while a drill is in progress.
func (s *Session) Current() (models.Question, bool) {
	if s.phase != PhaseRunning && s.phase != PhaseAnswered {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// CurrentAnswer returns the recorded answer for the current question, if any.
func (s *Session) CurrentAnswer() (models.UserAnswer, bool) {
	q, ok := s.Current()
	if !ok {
		return models.UserAnswer{}, false
	}
	return s.answerFor(q.ID)
}

// Submit records the selected option for the current question. Correctness is
// an exact match against the question's answer. A question accepts exactly one
// answer; later submissions return ErrAlreadyAnswered and change nothing.
func (s *Session) Submit(option string) (models.UserAnswer, error) {
	if s.phase == PhaseAnswered {
		return models.UserAnswer{}, ErrAlreadyAnswered
	}
	if s.phase != PhaseRunning {
		return models.UserAnswer{}, s.reject("submit answer")
	}

	q := s.questions[s.index]
	if _, ok := s.answerFor(q.ID); ok {
		return models.UserAnswer{}, ErrAlreadyAnswered
	}
	if !q.HasOption(option) {
		return models.UserAnswer{}, ErrUnknownOption
	}

	a := models.UserAnswer{
		QuestionID:     q.ID,
		SelectedAnswer: option,
		IsCorrect:      option == q.Answer,
	}
	s.answered[q.ID] = len(s.answers)
	s.answers = append(s.answers, a)
	s.phase = PhaseAnswered
	return a, nil
}

// Next moves past an answered question, finishing after the last one.
func (s *Session) Next() error {
	if s.phase != PhaseAnswered {
		return s.reject("next")
	}
	if s.index >= len(s.questions)-1 {
		s.phase = PhaseFinished
		return nil
	}
	s.index++
	s.phase = PhaseRunning
	return nil
}

// Restart clears the drill and returns to idle. The filter is kept.
func (s *Session) Restart() {
	s.phase = PhaseIdle
	s.questions = nil
	s.index = 0
	s.answers = nil
	s.answered = make(map[string]int)
}

func (s *Session) ShowReview() error {
	if s.phase != PhaseFinished {
		return s.reject("show review")
	}
	s.phase = PhaseReviewing
	return nil
}

func (s *Session) CloseReview() error {
	if s.phase != PhaseReviewing {
		return s.reject("close review")
	}
	s.phase = PhaseFinished
	return nil
}

func (s *Session) finished() bool {
	return s.phase == PhaseFinished || s.phase == PhaseReviewing
}

// Result scores the finished drill.
func (s *Session) Result() (models.QuizResult, error) {
	if !s.finished() {
		return models.QuizResult{}, s.reject("result")
	}
	return Score(s.answers, len(s.questions))
}

// WrongAnswers pairs every incorrect answer with its question, in play order.
func (s *Session) WrongAnswers() ([]models.WrongAnswer, error) {
	if !s.finished() {
		return nil, s.reject("wrong answers")
	}

	var out []models.WrongAnswer
	for _, q := range s.questions {
		a, ok := s.answerFor(q.ID)
		if !ok || a.IsCorrect {
			continue
		}
		out = append(out, models.WrongAnswer{Question: q, UserAnswer: a})
	}
	return out, nil
}

// State renders the session for the client. selectedCount is the size of the
// filtered pool, shown while choosing filters.
func (s *Session) State(selectedCount int) models.DrillState {
	st := models.DrillState{
		Phase:         string(s.phase),
		Category:      s.filter.Category,
		Type:          s.filter.Type,
		SelectedCount: selectedCount,
		Index:         s.index,
		Total:         len(s.questions),
		Answered:      len(s.answers),
	}

	if q, ok := s.Current(); ok {
		a, answered := s.answerFor(q.ID)
		v := q.View(answered)
		st.Current = &v
		if answered {
			st.CurrentAnswer = &a
		}
		st.IsLast = s.index == len(s.questions)-1
		st.Progress = float64(s.index+1) / float64(len(s.questions)) * 100
	} else if s.finished() {
		st.Progress = 100
	}
	return st
}

func (s *Session) answerFor(questionID string) (models.UserAnswer, bool) {
	i, ok := s.answered[questionID]
	if !ok {
		return models.UserAnswer{}, false
	}
	return s.answers[i], true
}

func (s *Session) reject(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, s.phase)
}

// dedupe drops repeated question IDs, keeping the first occurrence.
func dedupe(questions []models.Question) []models.Question {
	seen := make(map[string]bool, len(questions))
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}
