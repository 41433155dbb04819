// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenPrefix = "forget-password:"
	ResetTokenExpiry = 3 * 24 * time.Hour
)

// NewResetToken returns a random, unguessable token for a reset link.
func NewResetToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return id.String(), nil
}

// ResetTokenKey namespaces a token for storage.
func ResetTokenKey(token string) string {
	return ResetTokenPrefix + token
}

// TokenStore holds short-lived values that expire on their own.
type TokenStore interface {
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take atomically reads and deletes the value under key.
	// Returns ErrNotFound if the key is absent or expired.
	Take(ctx context.Context, key string) (string, error)
}
