// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
}

// SetPassword replaces the stored hash and refreshes UpdatedAt.
func (u *User) SetPassword(hash string) {
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
}

// redacted returns a copy of the user without the password hash.
func (u *User) redacted() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

// FieldError describes why a single input was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserResponse is the result of an operation that either yields a user
// or rejects the input. Exactly one of Errors and User is set.
type UserResponse struct {
	Errors []FieldError `json:"errors,omitempty"`
	User   *User        `json:"user,omitempty"`
}

// OK reports whether the operation succeeded.
func (r *UserResponse) OK() bool {
	return r != nil && len(r.Errors) == 0 && r.User != nil
}

func rejected(field, message string) *UserResponse {
	return &UserResponse{Errors: []FieldError{{Field: field, Message: message}}}
}

func accepted(u *User) *UserResponse {
	return &UserResponse{User: u.redacted()}
}

// RegisterInput carries the fields submitted at registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and fills in ID, CreatedAt and UpdatedAt.
	// Returns ErrConflict if the username or email is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns ErrNotFound if no user has the given ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists the password hash and UpdatedAt of an existing user.
	Update(ctx context.Context, user *User) error
}
