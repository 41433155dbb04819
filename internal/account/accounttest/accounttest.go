// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package accounttest provides in-memory collaborators for account tests.
package accounttest

import (
	"context"
	"sync"
	"time"

	"github.com/infinitejoke/accounts/internal/account"
)

// UserRepository is an account.UserRepository backed by a map. It enforces
// unique usernames and emails like the database constraints do.
type UserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]account.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]account.User)}
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return account.ErrConflict
		}
	}

	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*account.User, error) {
	return r.find(func(u account.User) bool { return u.ID == id })
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*account.User, error) {
	return r.find(func(u account.User) bool { return u.Username == username })
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*account.User, error) {
	return r.find(func(u account.User) bool { return u.Email == email })
}

// Update persists the password hash and UpdatedAt.
func (r *UserRepository) Update(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return account.ErrNotFound
	}
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = stored
	return nil
}

// Delete removes a user. The service never deletes users; tests use this
// to simulate accounts removed out of band.
func (r *UserRepository) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Count returns the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *UserRepository) find(match func(account.User) bool) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// TokenStore is an account.TokenStore backed by a map with expiry.
type TokenStore struct {
	mu      sync.Mutex
	entries map[string]tokenEntry

	// Now is the clock used for expiry. Tests may replace it.
	Now func() time.Time
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{entries: make(map[string]tokenEntry), Now: time.Now}
}

// Set stores value under key for ttl.
func (s *TokenStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = tokenEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

// Take reads and deletes the value under key.
func (s *TokenStore) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	delete(s.entries, key)
	if !ok || !s.Now().Before(e.expiresAt) {
		return "", account.ErrNotFound
	}
	return e.value, nil
}

// Keys returns the stored keys, expired or not.
func (s *TokenStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// TTL returns the remaining lifetime of key, or 0 if absent.
func (s *TokenStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0
	}
	return e.expiresAt.Sub(s.Now())
}

// Session is an account.Session held in memory.
type Session struct {
	userID    int64
	hasUser   bool
	Destroyed bool
	Cleared   bool

	// SetErr and DestroyErr are returned by SetUserID and Destroy.
	SetErr     error
	DestroyErr error
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// NewSessionFor returns a session logged in as id.
func NewSessionFor(id int64) *Session {
	return &Session{userID: id, hasUser: true}
}

// UserID returns the logged-in user, if any.
func (s *Session) UserID() (int64, bool) {
	return s.userID, s.hasUser
}

// SetUserID logs the session in.
func (s *Session) SetUserID(_ context.Context, id int64) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.userID, s.hasUser = id, true
	return nil
}

// Destroy forgets the user.
func (s *Session) Destroy(_ context.Context) error {
	if s.DestroyErr != nil {
		return s.DestroyErr
	}
	s.userID, s.hasUser = 0, false
	s.Destroyed = true
	return nil
}

// ClearCookie records that the cookie was cleared.
func (s *Session) ClearCookie() {
	s.Cleared = true
}

// Message is a mail captured by Mailer.
type Message struct {
	To   string
	Body string
}

// Mailer records messages instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	sent []Message

	// Err, if set, is returned by Send and nothing is recorded.
	Err error
}

// Send records the message.
func (m *Mailer) Send(_ context.Context, to, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Message{To: to, Body: htmlBody})
	return nil
}

// Sent returns the recorded messages.
func (m *Mailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Compile-time interface checks.
var (
	_ account.UserRepository = (*UserRepository)(nil)
	_ account.TokenStore     = (*TokenStore)(nil)
	_ account.Session        = (*Session)(nil)
	_ account.Mailer         = (*Mailer)(nil)
)
