package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-portal/internal/domain"
	"profile-portal/internal/repository"
)

const userColumns = `id, username, password_hash, role, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
	q  DBTX
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db, q: db}
}

func (r *UserRepository) WithTx(ctx context.Context, fn func(ctx context.Context, users repository.UserRepository) error) error {
	if r.db == nil {
		return errors.New("nested transactions are not supported")
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, &UserRepository{q: tx})
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	res, err := r.q.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id int64, username string) error {
	res, err := r.q.ExecContext(ctx, `
UPDATE users SET username = ?, updated_at = ?
WHERE id = ?`,
		username,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename user %d to %q: %w", id, username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("update username: %w", err)
	}
	return expectAffected(res, "update username")
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	res, err := r.q.ExecContext(ctx, `
UPDATE users SET role = ?, updated_at = ?
WHERE id = ?`,
		role,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return expectAffected(res, "update role")
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(res, "delete user")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
