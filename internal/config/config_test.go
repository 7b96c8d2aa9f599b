package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/db.sqlite", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads/profile_pictures", cfg.Storage.UploadDir)
	assert.Equal(t, MaxSessionTTL, cfg.Auth.SessionTTL)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "pbkdf2", cfg.Auth.Hasher)
	assert.Equal(t, 600000, cfg.Auth.PBKDF2Iterations)
	assert.Equal(t, "sqlite", cfg.Session.Backend)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("PORTAL_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("PORTAL_AUTH_SESSIONTTL", "2h")
	t.Setenv("PORTAL_AUTH_COOKIESECURE", "false")
	t.Setenv("PORTAL_SESSION_BACKEND", "redis")

	cfg, err := Load([]string{"--debug"})
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "redis", cfg.Session.Backend)
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"--nope"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Storage.Backend = "local"
		c.Storage.UploadDir = "uploads"
		c.Session.Backend = "sqlite"
		c.Auth.Hasher = "pbkdf2"
		c.Auth.SessionTTL = time.Hour
		return c
	}

	t.Run("clamps session ttl", func(t *testing.T) {
		c := valid()
		c.Auth.SessionTTL = 72 * time.Hour
		require.NoError(t, c.Validate())
		assert.Equal(t, MaxSessionTTL, c.Auth.SessionTTL)
	})

	t.Run("keeps shorter ttl", func(t *testing.T) {
		c := valid()
		require.NoError(t, c.Validate())
		assert.Equal(t, time.Hour, c.Auth.SessionTTL)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		c := valid()
		c.Storage.Backend = "s3"
		assert.Error(t, c.Validate())
		c.Storage.Bucket = "pictures"
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown backends", func(t *testing.T) {
		c := valid()
		c.Storage.Backend = "ftp"
		assert.Error(t, c.Validate())

		c = valid()
		c.Session.Backend = "memcached"
		assert.Error(t, c.Validate())

		c = valid()
		c.Auth.Hasher = "md5"
		assert.Error(t, c.Validate())
	})
}
