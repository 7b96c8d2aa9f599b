package service

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidFormat is the parent of every username shape error.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidUsername indicates a username that is not a letter followed by word characters.
	ErrInvalidUsername = fmt.Errorf("%w: username must start with a letter followed by letters, digits or underscores", ErrInvalidFormat)
	// ErrInvalidUsernameLength indicates a username outside MinUsernameLength..MaxUsernameLength.
	ErrInvalidUsernameLength = fmt.Errorf("%w: username has an invalid length", ErrInvalidFormat)
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateUsername applies the rules shared by registration and rename.
// The pattern is checked before the length.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsernameLength
	}
	return nil
}
