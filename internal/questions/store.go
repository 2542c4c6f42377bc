package questions

import (
	"context"
	"sync"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
)

// Store caches the question bank read from a backend. The bank only changes
// through imports, which call Invalidate.
type Store struct {
	source backend.QuestionSource

	mu     sync.RWMutex
	cached []models.Question
	loaded bool
}

func NewStore(source backend.QuestionSource) *Store {
	return &Store{source: source}
}

// All returns a copy of the bank in source order.
func (s *Store) All(ctx context.Context) ([]models.Question, error) {
	s.mu.RLock()
	if s.loaded {
		out := make([]models.Question, len(s.cached))
		copy(out, s.cached)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	questions, err := s.source.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = questions
	s.loaded = true
	s.mu.Unlock()

	out := make([]models.Question, len(questions))
	copy(out, questions)
	return out, nil
}

// Invalidate drops the cached bank so the next read goes to the backend.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.loaded = false
	s.mu.Unlock()
}
