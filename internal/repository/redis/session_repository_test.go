package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-portal/internal/domain"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "sess:abc", sessionKey("abc"))
}

func TestCreate_RejectsExpiredSessionWithoutRoundTrip(t *testing.T) {
	// the client is never dialed: the expiry check happens first
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { client.Close() })

	repo := NewSessionRepository(client)
	err := repo.Create(context.Background(), &domain.Session{
		ID:        "old",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already expired")
}
