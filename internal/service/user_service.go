package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"profile-portal/internal/auth"
	"profile-portal/internal/domain"
	"profile-portal/internal/repository"
	"profile-portal/internal/storage"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when a username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUnknownRole is returned by SetRole for roles the application does not know.
	ErrUnknownRole = errors.New("unknown role")
)

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	RenameAccount(ctx context.Context, oldUsername, newUsername string) (*domain.User, error)
	DeleteAccount(ctx context.Context, username string) error
	SetRole(ctx context.Context, username, role string) error
}

type userService struct {
	users    repository.UserRepository
	pictures storage.Service
	hasher   auth.PasswordHasher
	log      logrus.FieldLogger
}

func NewUserService(users repository.UserRepository, pictures storage.Service, hasher auth.PasswordHasher, logger logrus.FieldLogger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:    users,
		pictures: pictures,
		hasher:   hasher,
		log:      logger,
	}
}

func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.WithField("username", username).Info("account registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// RenameAccount changes the username and moves the picture keyed by the old name.
// Both changes land together: a failed picture move rolls the row back, a failed
// commit moves the picture back.
func (s *userService) RenameAccount(ctx context.Context, oldUsername, newUsername string) (*domain.User, error) {
	if err := ValidateUsername(newUsername); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, oldUsername)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, newUsername); err != nil {
		return nil, err
	}

	err = s.coupledChange(ctx,
		func(ctx context.Context, users repository.UserRepository) error {
			return users.UpdateUsername(ctx, user.ID, newUsername)
		},
		func(ctx context.Context) (func(context.Context) error, error) {
			if err := s.pictures.Rename(ctx, oldUsername, newUsername); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, nil
				}
				return nil, fmt.Errorf("rename picture: %w", err)
			}
			return func(ctx context.Context) error {
				return s.pictures.Rename(ctx, newUsername, oldUsername)
			}, nil
		},
	)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"from": oldUsername, "to": newUsername}).Info("account renamed")
	user.Username = newUsername
	return sanitizeUser(user), nil
}

// DeleteAccount removes the user row and the picture keyed by the username.
// The picture is parked under a hidden key until the row deletion commits.
func (s *userService) DeleteAccount(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	var parked string
	err = s.coupledChange(ctx,
		func(ctx context.Context, users repository.UserRepository) error {
			return users.Delete(ctx, user.ID)
		},
		func(ctx context.Context) (func(context.Context) error, error) {
			key := ".trash-" + uuid.NewString()
			if err := s.pictures.Rename(ctx, username, key); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, nil
				}
				return nil, fmt.Errorf("park picture: %w", err)
			}
			parked = key
			return func(ctx context.Context) error {
				return s.pictures.Rename(ctx, key, username)
			}, nil
		},
	)
	if err != nil {
		return err
	}

	if parked != "" {
		if err := s.pictures.Delete(ctx, parked); err != nil {
			s.log.WithError(err).WithField("key", parked).Warn("remove parked picture")
		}
	}
	s.log.WithField("username", username).Info("account deleted")
	return nil
}

func (s *userService) SetRole(ctx context.Context, username, role string) error {
	role = strings.TrimSpace(role)
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"username": username, "role": role}).Info("role changed")
	return nil
}

// ensureAvailable is a plain check-then-act; the unique constraint catches the race.
func (s *userService) ensureAvailable(ctx context.Context, username string) error {
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

// coupledChange runs dbChange in a transaction and pictureChange just before the
// commit. An error from pictureChange rolls the transaction back; if the commit
// itself fails the undo returned by pictureChange is applied.
func (s *userService) coupledChange(
	ctx context.Context,
	dbChange func(ctx context.Context, users repository.UserRepository) error,
	pictureChange func(ctx context.Context) (func(context.Context) error, error),
) error {
	var undo func(context.Context) error
	err := s.users.WithTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		if err := dbChange(ctx, users); err != nil {
			return err
		}
		u, err := pictureChange(ctx)
		if err != nil {
			return err
		}
		undo = u
		return nil
	})
	if err != nil && undo != nil {
		if uerr := undo(context.WithoutCancel(ctx)); uerr != nil {
			s.log.WithError(uerr).Error("revert picture change after failed commit")
		}
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
