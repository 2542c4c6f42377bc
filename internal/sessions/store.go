// Package sessions keeps one client context per signed-in browser: the
// authenticated user and the drill session they are working through.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/quiz"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Context is the per-client state. Callers must hold Lock while reading or
// mutating Quiz.
type Context struct {
	mu sync.Mutex

	ID   string
	User models.User
	Quiz *quiz.Session

	lastSeen time.Time
}

func (c *Context) Lock()   { c.mu.Lock() }
func (c *Context) Unlock() { c.mu.Unlock() }

type Store struct {
	mu       sync.RWMutex
	contexts map[string]*Context
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		contexts: make(map[string]*Context),
		now:      time.Now,
	}
}

// Open creates a fresh context for a signed-in user.
func (s *Store) Open(user models.User) *Context {
	c := &Context{
		ID:       uuid.NewString(),
		User:     user,
		Quiz:     quiz.NewSession(),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.contexts[c.ID] = c
	s.mu.Unlock()
	return c
}

// Get returns the context and marks it as recently used.
func (s *Store) Get(id string) (*Context, error) {
	s.mu.RLock()
	c, ok := s.contexts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	c.mu.Lock()
	c.lastSeen = s.now()
	c.mu.Unlock()
	return c, nil
}

// Close clears a context. Tokens that refer to it stop working.
func (s *Store) Close(id string) {
	s.mu.Lock()
	delete(s.contexts, id)
	s.mu.Unlock()
}

// Sweep removes contexts idle for longer than ttl and returns how many.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.contexts {
		c.mu.Lock()
		idle := c.lastSeen.Before(cutoff)
		c.mu.Unlock()
		if idle {
			delete(s.contexts, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
