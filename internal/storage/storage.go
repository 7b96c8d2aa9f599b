package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound is returned when no object is stored under a key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that could escape the store's namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

// Service stores profile pictures as flat objects addressed by key.
type Service interface {
	// Put stores or overwrites the object at key.
	Put(ctx context.Context, key string, body io.Reader) error
	// Open returns the object at key or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Rename moves the object at from to to, overwriting to. ErrNotFound if from is absent.
	Rename(ctx context.Context, from, to string) error
	// Delete removes the object at key. ErrNotFound if it is absent.
	Delete(ctx context.Context, key string) error
}

// ValidKey reports whether key is a single, non-special path segment.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\\x00")
}
