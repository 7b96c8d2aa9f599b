package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Hash schemes accepted by NewPasswords.
const (
	SchemePBKDF2 = "pbkdf2"
	SchemeBcrypt = "bcrypt"
)

const (
	// DefaultPBKDF2Iterations matches the werkzeug default so hashes stay interchangeable.
	DefaultPBKDF2Iterations = 600000
	saltLength              = 16
	saltAlphabet            = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
}

// Passwords produces hashes with one scheme and verifies any supported scheme.
//
// PBKDF2 hashes use the werkzeug text layout
// "pbkdf2:<digest>:<iterations>$<salt>$<hex>", bcrypt hashes the usual "$2b$..." layout.
type Passwords struct {
	scheme     string
	iterations int
}

func NewPasswords(scheme string, iterations int) (*Passwords, error) {
	switch scheme {
	case SchemePBKDF2, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("unsupported password scheme %q", scheme)
	}
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &Passwords{scheme: scheme, iterations: iterations}, nil
}

func (p *Passwords) Hash(password string) (string, error) {
	if p.scheme == SchemeBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hash), nil
	}

	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), p.iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", p.iterations, salt, hex.EncodeToString(key)), nil
}

func (p *Passwords) Verify(encoded, password string) bool {
	if strings.HasPrefix(encoded, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}
	return verifyPBKDF2(encoded, password)
}

func verifyPBKDF2(encoded, password string) bool {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]

	args := strings.Split(method, ":")
	if len(args) < 2 || len(args) > 3 || args[0] != "pbkdf2" {
		return false
	}

	var (
		newHash func() hash.Hash
		size    int
	)
	switch args[1] {
	case "sha256":
		newHash, size = sha256.New, sha256.Size
	case "sha512":
		newHash, size = sha512.New, sha512.Size
	default:
		return false
	}

	iterations := DefaultPBKDF2Iterations
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	got := hex.EncodeToString(pbkdf2.Key([]byte(password), []byte(salt), iterations, size, newHash))
	return hmac.Equal([]byte(got), []byte(want))
}

func randomSalt(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

var _ PasswordHasher = (*Passwords)(nil)
