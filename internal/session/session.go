// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package session keeps server-side session records in Redis.
//
// The client holds an opaque random id in a cookie. Redis holds a small JSON
// record under the SHA-256 hash of that id, so a dump of the keyspace does
// not reveal usable cookies.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/infinitejoke/accounts/internal/account"
)

// Session defaults.
const (
	DefaultKeyPrefix = "sess:"
	DefaultTTL       = 10 * 365 * 24 * time.Hour
	idBytes          = 32 // 64 hex chars
)

type record struct {
	UserID int64 `json:"userId"`
}

// CookieJar writes the session cookie on the response.
type CookieJar interface {
	// SetID sends id to the client with the given lifetime.
	SetID(id string, maxAge time.Duration)
	// Clear tells the client to drop the cookie.
	Clear()
}

// Store loads and saves session records.
type Store struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long records and cookies live.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix for records.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewStore creates a Store.
func NewStore(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime of new records.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// NewID creates a random session id.
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", idBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Store) key(id string) string {
	h := sha256.Sum256([]byte(id))
	return s.prefix + hex.EncodeToString(h[:])
}

// Load returns the session for the id presented by the client. An empty,
// unknown or expired id yields an anonymous session; nothing is written
// until the session is authenticated.
func (s *Store) Load(ctx context.Context, id string, jar CookieJar) (*Session, error) {
	sess := &Session{store: s, jar: jar}
	if id == "" {
		return sess, nil
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return sess, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOAD_FAILED").With("operation", "get session").Wrap(err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.Code("SESSION_CORRUPT").With("operation", "decode session").Wrap(err)
	}

	sess.id = id
	sess.userID = rec.UserID
	sess.hasUser = rec.UserID != 0
	return sess, nil
}

func (s *Store) save(ctx context.Context, id string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "encode session").Wrap(err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "set session").Wrap(err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").With("operation", "delete session").Wrap(err)
	}
	return nil
}

// Session is the session of one request. It is not safe for concurrent use.
type Session struct {
	store   *Store
	jar     CookieJar
	id      string
	userID  int64
	hasUser bool
}

// ID returns the id of the stored record, or "" for a session that has
// never been written.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the logged-in user, if any.
func (s *Session) UserID() (int64, bool) {
	return s.userID, s.hasUser
}

// SetUserID authenticates the session. A fresh id is issued every time so
// an id seen before login is never valid after it.
func (s *Session) SetUserID(ctx context.Context, userID int64) error {
	id, err := NewID()
	if err != nil {
		return err
	}
	if err := s.store.save(ctx, id, record{UserID: userID}); err != nil {
		return err
	}
	if s.id != "" {
		// The new record is already live; a leftover old one only expires.
		_ = s.store.delete(ctx, s.id) //nolint:errcheck // best effort
	}

	s.id = id
	s.userID, s.hasUser = userID, true
	s.jar.SetID(id, s.store.ttl)
	return nil
}

// Destroy deletes the stored record. The session is anonymous afterwards
// even if the delete fails.
func (s *Session) Destroy(ctx context.Context) error {
	id := s.id
	s.id = ""
	s.userID, s.hasUser = 0, false
	if id == "" {
		return nil
	}
	return s.store.delete(ctx, id)
}

// ClearCookie tells the client to forget the session id.
func (s *Session) ClearCookie() {
	s.jar.Clear()
}

// Compile-time interface check.
var _ account.Session = (*Session)(nil)
