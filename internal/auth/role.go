package auth

import (
	"errors"

	"profile-portal/internal/domain"
)

// ErrAccessDenied is returned when the caller lacks the required role.
var ErrAccessDenied = errors.New("access denied")

// RequireRole runs op only when user is present and its stored role equals role exactly.
// There is no role hierarchy: an admin does not satisfy a check for "user".
func RequireRole(user *domain.User, role string, op func() error) error {
	if !user.HasRole(role) {
		return ErrAccessDenied
	}
	return op()
}
