package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"profile-portal/internal/domain"
	"profile-portal/internal/repository"
)

// SessionKeyPrefix namespaces session keys.
const SessionKeyPrefix = "sess:"

// SessionRepository keeps sessions as `sess:<id>` -> user id, expiring with the session.
type SessionRepository struct {
	client goredis.UniversalClient
	now    func() time.Time
}

func NewSessionRepository(client goredis.UniversalClient) repository.SessionRepository {
	return &SessionRepository{client: client, now: time.Now}
}

// Open connects to redis and verifies the connection.
func Open(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return SessionKeyPrefix + id
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	now := r.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now.UTC()
	}
	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), session.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := sessionKey(id)
	userID, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("session ttl: %w", err)
	}
	if ttl <= 0 {
		// key vanished or has no expiry; neither is a live session
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: r.now().Add(ttl).UTC(),
	}, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
