package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-portal/internal/domain"
)

func TestPasswords_PBKDF2RoundTrip(t *testing.T) {
	p, err := NewPasswords(SchemePBKDF2, 1000)
	require.NoError(t, err)

	hash, err := p.Hash("s3cret!123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "pbkdf2:sha256:1000$"))
	assert.NotContains(t, hash, "s3cret!123")

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], saltLength)
	assert.Len(t, parts[2], 64)

	assert.True(t, p.Verify(hash, "s3cret!123"))
	assert.False(t, p.Verify(hash, "wrong"))

	again, err := p.Hash("s3cret!123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salted")
}

func TestPasswords_VerifiesWerkzeugHashes(t *testing.T) {
	p, err := NewPasswords(SchemePBKDF2, 1000)
	require.NoError(t, err)

	sha256Hash := "pbkdf2:sha256:1000$abcdEFGH12345678$cc24ff29f35b6d6bb8293d0958f445a47577fc763f54ba9520d022a6c813d2fd"
	assert.True(t, p.Verify(sha256Hash, "hunter2"))
	assert.False(t, p.Verify(sha256Hash, "hunter3"))

	sha512Hash := "pbkdf2:sha512:1000$abcdEFGH12345678$77065ee3e5eac2b0711edce66c31a27c7e3038924b34fa0d021d7962cf89b9d59de553103b46d5fe51ed066ddd2b3907c70f21bb6398a982f23356df0ace195b"
	assert.True(t, p.Verify(sha512Hash, "hunter2"))
}

func TestPasswords_RejectsMalformedHashes(t *testing.T) {
	p, err := NewPasswords(SchemePBKDF2, 1000)
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"hunter2",
		"pbkdf2:sha256:1000$salt",
		"scrypt:32768:8:1$salt$abcd",
		"pbkdf2:md5:1000$salt$abcd",
		"pbkdf2:sha256:zero$salt$abcd",
		"pbkdf2:sha256:-5$salt$abcd",
	} {
		assert.False(t, p.Verify(encoded, "hunter2"), encoded)
	}
}

func TestPasswords_Bcrypt(t *testing.T) {
	p, err := NewPasswords(SchemeBcrypt, 0)
	require.NoError(t, err)

	hash, err := p.Hash("pass1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, p.Verify(hash, "pass1234"))
	assert.False(t, p.Verify(hash, "pass12345"))

	// a pbkdf2 hasher still accepts bcrypt hashes
	other, err := NewPasswords(SchemePBKDF2, 1000)
	require.NoError(t, err)
	assert.True(t, other.Verify(hash, "pass1234"))
}

func TestNewPasswords_UnknownScheme(t *testing.T) {
	_, err := NewPasswords("md5", 0)
	assert.Error(t, err)
}

func newSession(ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{ID: "session-1", UserID: 42, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens, err := NewTokens([]byte("super-secret"))
	require.NoError(t, err)

	tok, err := tokens.Issue(newSession(time.Hour))
	require.NoError(t, err)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestTokens_Rejects(t *testing.T) {
	tokens, err := NewTokens([]byte("right-secret"))
	require.NoError(t, err)
	other, err := NewTokens([]byte("wrong-secret"))
	require.NoError(t, err)

	forged, err := other.Issue(newSession(time.Hour))
	require.NoError(t, err)
	_, err = tokens.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := tokens.Issue(newSession(-time.Minute))
	require.NoError(t, err)
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokens_EmptySecret(t *testing.T) {
	_, err := NewTokens(nil)
	assert.Error(t, err)
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestRequireRole(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		return nil
	}

	user := &domain.User{Username: "ursula", Role: domain.RoleUser}
	admin := &domain.User{Username: "ada", Role: domain.RoleAdmin}

	assert.ErrorIs(t, RequireRole(user, domain.RoleAdmin, op), ErrAccessDenied)
	assert.ErrorIs(t, RequireRole(nil, domain.RoleAdmin, op), ErrAccessDenied)
	assert.ErrorIs(t, RequireRole(admin, domain.RoleUser, op), ErrAccessDenied, "no hierarchy")
	assert.Equal(t, 0, calls, "denied operations never run")

	require.NoError(t, RequireRole(admin, domain.RoleAdmin, op))
	require.NoError(t, RequireRole(user, domain.RoleUser, op))
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	assert.ErrorIs(t, RequireRole(admin, domain.RoleAdmin, func() error { return boom }), boom)
}
