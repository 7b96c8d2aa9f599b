package repository

import (
	"context"

	"profile-portal/internal/domain"
)

// SessionRepository stores server-side login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error
}
