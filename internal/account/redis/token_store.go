// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package redis implements the reset token store on Redis.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/infinitejoke/accounts/internal/account"
)

// TokenStore implements account.TokenStore with expiring Redis keys.
type TokenStore struct {
	client goredis.Cmdable
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(client goredis.Cmdable) *TokenStore {
	return &TokenStore{client: client}
}

// Set stores value under key, expiring after ttl.
func (s *TokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.Code("TOKEN_TTL_INVALID").With("ttl", ttl).Errorf("token ttl must be positive")
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return oops.Code("TOKEN_SET_FAILED").With("operation", "set token").Wrap(err)
	}
	return nil
}

// Take atomically reads and deletes key. Concurrent callers racing for the
// same key see at most one success.
func (s *TokenStore) Take(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", oops.Code("TOKEN_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("TOKEN_TAKE_FAILED").With("operation", "take token").Wrap(err)
	}
	return value, nil
}

// Compile-time interface check.
var _ account.TokenStore = (*TokenStore)(nil)
