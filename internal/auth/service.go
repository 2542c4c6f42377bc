package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/models"
	"github.com/gisa-quiz/backend/internal/sessions"
)

type Service struct {
	identity backend.Identity
	sessions *sessions.Store
	tokens   *Tokens
}

func NewService(identity backend.Identity, store *sessions.Store, tokens *Tokens) *Service {
	return &Service{identity: identity, sessions: store, tokens: tokens}
}

// SignUp validates the form before touching the backend, creates the account
// and signs the new user in.
func (s *Service) SignUp(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateSignUp(req); err != nil {
		return nil, err
	}

	user, err := s.identity.SignUp(ctx, req.Email, req.Password, models.Profile{
		Username: req.Username,
		Name:     req.Name,
	})
	switch {
	case errors.Is(err, backend.ErrDuplicateUsername):
		return nil, ErrUsernameTaken
	case errors.Is(err, backend.ErrDuplicateEmail):
		return nil, ErrEmailTaken
	case errors.Is(err, backend.ErrNotConfigured):
		return nil, ErrAuthUnavailable
	case err != nil:
		return nil, fmt.Errorf("sign up: %w", err)
	}

	return s.open(*user)
}

func validateSignUp(req models.RegisterRequest) error {
	if req.Username == "" || req.Name == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if len([]rune(req.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !strings.Contains(req.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// SignIn accepts a username or an email. A username is resolved to its email
// first; when that fails the password is never sent to the backend.
func (s *Service) SignIn(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	email := strings.ToLower(identifier)
	username := ""
	if !strings.Contains(identifier, "@") {
		username = identifier
		resolved, err := s.identity.EmailByUsername(ctx, identifier)
		switch {
		case errors.Is(err, backend.ErrUserNotFound):
			return nil, ErrUnknownUsername
		case errors.Is(err, backend.ErrNotConfigured):
			return nil, ErrAuthUnavailable
		case err != nil:
			return nil, fmt.Errorf("resolve username: %w", err)
		}
		email = resolved
	}

	identity, err := s.identity.SignIn(ctx, email, req.Password)
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		return nil, ErrBadCredentials
	case errors.Is(err, backend.ErrNotConfigured):
		return nil, ErrAuthUnavailable
	case err != nil:
		return nil, fmt.Errorf("sign in: %w", err)
	}

	user := s.profile(ctx, *identity, username)
	return s.open(user)
}

// profile loads the stored profile, falling back to what sign-in returned
// when no profile row exists.
func (s *Service) profile(ctx context.Context, identity models.User, username string) models.User {
	p, err := s.identity.GetUserProfile(ctx, identity.AuthID)
	if err == nil {
		return *p
	}
	if !errors.Is(err, backend.ErrUserNotFound) {
		log.Printf("[auth] profile lookup for %s failed: %v", identity.AuthID, err)
	}

	fallback := identity
	if fallback.ID == "" {
		fallback.ID = identity.AuthID
	}
	if fallback.Username == "" {
		fallback.Username = username
	}
	if fallback.Username == "" {
		fallback.Username, _, _ = strings.Cut(fallback.Email, "@")
	}
	return fallback
}

func (s *Service) open(user models.User) (*models.AuthResponse, error) {
	c := s.sessions.Open(user)
	token, err := s.tokens.Issue(user.ID, c.ID)
	if err != nil {
		s.sessions.Close(c.ID)
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// SignOut ends the backend session and always clears the client context.
func (s *Service) SignOut(ctx context.Context, c *sessions.Context) {
	if err := s.identity.SignOut(ctx, c.User.AuthID); err != nil {
		log.Printf("[auth] backend sign-out for %s failed: %v", c.User.ID, err)
	}
	s.sessions.Close(c.ID)
}

// Me returns the current profile, or the session copy when the backend has
// no row for it.
func (s *Service) Me(ctx context.Context, c *sessions.Context) models.User {
	return s.profile(ctx, c.User, c.User.Username)
}

func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrMissingFields
	}
	taken, err := s.identity.UsernameTaken(ctx, username)
	if errors.Is(err, backend.ErrNotConfigured) {
		return false, ErrAuthUnavailable
	}
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

// Authenticate resolves a bearer token to its live client context. Tokens
// whose context was cleared by sign-out or eviction are rejected.
func (s *Service) Authenticate(token string) (*sessions.Context, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	c, err := s.sessions.Get(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if c.User.ID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return c, nil
}
