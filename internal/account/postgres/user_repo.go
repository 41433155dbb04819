// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package postgres implements account storage on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/infinitejoke/accounts/internal/account"
)

// Pool is the subset of *pgxpool.Pool the repository uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectUser = `
	SELECT id, username, email, password, created_at, updated_at
	FROM users
`

// UserRepository implements account.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. The database assigns the ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Username, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_CONFLICT").
				With("username", user.Username).
				With("constraint", pgErr.ConstraintName).
				Wrap(account.ErrConflict)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+`WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+`WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+`WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// Update persists the password hash and updated_at of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *account.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password = $2, updated_at = $3
		WHERE id = $1
	`, user.ID, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID).Wrap(account.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*account.User, error) {
	var u account.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify and wrap
	}
	return &u, nil
}

// Compile-time interface check.
var _ account.UserRepository = (*UserRepository)(nil)
