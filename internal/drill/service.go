// Package drill exposes a client's quiz session over HTTP. Every operation
// runs under the client context's lock so one client's requests apply in
// order.
package drill

import (
	"context"
	"fmt"
	"log"

	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/quiz"
	"github.com/gisa-quiz/backend/internal/sessions"
)

// QuestionPool supplies the full question bank.
type QuestionPool interface {
	Pool(ctx context.Context) ([]models.Question, error)
}

// WrongAnswerSaver persists a finished drill's wrong answers as notes.
type WrongAnswerSaver interface {
	SaveWrongAnswers(ctx context.Context, userID string, wrong []models.WrongAnswer) (*models.SaveWrongAnswersResponse, error)
}

type Service struct {
	questions QuestionPool
	notes     WrongAnswerSaver
}

func NewService(questions QuestionPool, notes WrongAnswerSaver) *Service {
	return &Service{questions: questions, notes: notes}
}

// State returns the current snapshot. The selected count reflects the
// session's filter over the current bank.
func (s *Service) State(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	pool, err := s.pool(ctx)
	if err != nil {
		return models.DrillState{}, err
	}

	c.Lock()
	defer c.Unlock()
	return snapshot(c, pool), nil
}

func (s *Service) SetFilter(ctx context.Context, c *sessions.Context, f quiz.Filter) (models.DrillState, error) {
	pool, err := s.pool(ctx)
	if err != nil {
		return models.DrillState{}, err
	}

	c.Lock()
	defer c.Unlock()
	if err := c.Quiz.SetFilter(f); err != nil {
		return models.DrillState{}, err
	}
	return snapshot(c, pool), nil
}

func (s *Service) Start(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	pool, err := s.pool(ctx)
	if err != nil {
		return models.DrillState{}, err
	}

	c.Lock()
	defer c.Unlock()
	if err := c.Quiz.Start(pool); err != nil {
		return models.DrillState{}, err
	}
	log.Printf("[drill] client %s started %d questions (%s/%s)",
		c.ID, c.Quiz.Total(), c.Quiz.Filter().Category, c.Quiz.Filter().Type)
	return snapshot(c, pool), nil
}

func (s *Service) Answer(ctx context.Context, c *sessions.Context, option string) (models.DrillState, error) {
	return s.apply(ctx, c, func(q *quiz.Session) error {
		_, err := q.Submit(option)
		return err
	})
}

func (s *Service) Next(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	return s.apply(ctx, c, (*quiz.Session).Next)
}

func (s *Service) Restart(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	return s.apply(ctx, c, func(q *quiz.Session) error {
		q.Restart()
		return nil
	})
}

func (s *Service) ShowReview(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	return s.apply(ctx, c, (*quiz.Session).ShowReview)
}

func (s *Service) CloseReview(ctx context.Context, c *sessions.Context) (models.DrillState, error) {
	return s.apply(ctx, c, (*quiz.Session).CloseReview)
}

// Result scores the finished drill and attaches its grade band.
func (s *Service) Result(c *sessions.Context) (*models.DrillResultResponse, error) {
	c.Lock()
	defer c.Unlock()

	result, err := c.Quiz.Result()
	if err != nil {
		return nil, err
	}
	return &models.DrillResultResponse{Result: result, Grade: quiz.Grade(result.Score)}, nil
}

func (s *Service) WrongAnswers(c *sessions.Context) ([]models.WrongAnswer, error) {
	c.Lock()
	defer c.Unlock()

	wrong, err := c.Quiz.WrongAnswers()
	if err != nil {
		return nil, err
	}
	if wrong == nil {
		wrong = []models.WrongAnswer{}
	}
	return wrong, nil
}

// SaveWrongAnswers stores the finished drill's wrong answers as notes. The
// store is called without holding the client lock.
func (s *Service) SaveWrongAnswers(ctx context.Context, c *sessions.Context) (*models.SaveWrongAnswersResponse, error) {
	wrong, err := s.WrongAnswers(c)
	if err != nil {
		return nil, err
	}

	resp, err := s.notes.SaveWrongAnswers(ctx, c.User.ID, wrong)
	if err != nil {
		return nil, err
	}
	log.Printf("[drill] client %s saved %d wrong answers", c.ID, resp.Saved)
	return resp, nil
}

// apply runs one state machine transition and returns the new snapshot.
func (s *Service) apply(ctx context.Context, c *sessions.Context, op func(*quiz.Session) error) (models.DrillState, error) {
	pool, err := s.pool(ctx)
	if err != nil {
		return models.DrillState{}, err
	}

	c.Lock()
	defer c.Unlock()
	if err := op(c.Quiz); err != nil {
		return models.DrillState{}, err
	}
	return snapshot(c, pool), nil
}

func (s *Service) pool(ctx context.Context) ([]models.Question, error) {
	pool, err := s.questions.Pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return pool, nil
}

// snapshot must be called with c locked.
func snapshot(c *sessions.Context, pool []models.Question) models.DrillState {
	return c.Quiz.State(len(c.Quiz.Filter().Apply(pool)))
}
