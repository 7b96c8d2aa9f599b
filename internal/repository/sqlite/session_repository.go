package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"profile-portal/internal/domain"
	"profile-portal/internal/repository"
)

type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, user_id, expires_at, created_at)
VALUES (?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.ExpiresAt.Unix(),
		session.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session   domain.Session
		expiresAt int64
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, expires_at, created_at
FROM sessions
WHERE id = ?`,
		id,
	).Scan(&session.ID, &session.UserID, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	session.CreatedAt = time.Unix(createdAt, 0).UTC()

	if session.Expired(r.now()) {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("purge expired session: %w", err)
		}
		return nil, fmt.Errorf("session expired: %w", repository.ErrNotFound)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
