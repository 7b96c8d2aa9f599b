package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"profile-portal/internal/auth"
	"profile-portal/internal/domain"
	"profile-portal/internal/repository"
)

// ErrUnauthenticated is returned when a request carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionService issues, resolves and ends login sessions.
type SessionService interface {
	// Login verifies credentials and returns the user, the new session and its signed token.
	Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, string, error)
	// Resolve maps a token to its live session and the session's user.
	Resolve(ctx context.Context, token string) (*domain.User, *domain.Session, error)
	// Logout ends a session. Ending an unknown session succeeds.
	Logout(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

type sessionService struct {
	users    UserService
	sessions repository.SessionRepository
	tokens   *auth.Tokens
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(users UserService, sessions repository.SessionRepository, tokens *auth.Tokens, ttl time.Duration) SessionService {
	return &sessionService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, string, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, "", err
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, nil, "", err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, "", fmt.Errorf("create session: %w", err)
	}
	return user, session, token, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if session.UserID != claims.UserID {
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	return user, session, nil
}

func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
