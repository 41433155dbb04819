// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package mocks provides testify mocks of the account collaborators.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/infinitejoke/accounts/internal/account"
)

// TestingT is the subset of *testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t TestingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockUserRepository mocks account.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t TestingT) *MockUserRepository {
	m := &MockUserRepository{}
	register(t, &m.Mock)
	return m
}

// Create records the call. A func(context.Context, *account.User) error
// return value is invoked so tests can assign IDs.
func (m *MockUserRepository) Create(ctx context.Context, user *account.User) error {
	ret := m.Called(ctx, user)
	if fn, ok := ret.Get(0).(func(context.Context, *account.User) error); ok {
		return fn(ctx, user)
	}
	return ret.Error(0)
}

// GetByID records the call and returns the configured user and error.
func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	ret := m.Called(ctx, id)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// GetByUsername records the call and returns the configured user and error.
func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	ret := m.Called(ctx, username)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// GetByEmail records the call and returns the configured user and error.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	ret := m.Called(ctx, email)
	return userOrNil(ret.Get(0)), ret.Error(1)
}

// Update records the call and returns the configured error.
func (m *MockUserRepository) Update(ctx context.Context, user *account.User) error {
	return m.Called(ctx, user).Error(0)
}

func userOrNil(v any) *account.User {
	if u, ok := v.(*account.User); ok {
		return u
	}
	return nil
}

// MockTokenStore mocks account.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

// NewMockTokenStore creates a mock that asserts its expectations on cleanup.
func NewMockTokenStore(t TestingT) *MockTokenStore {
	m := &MockTokenStore{}
	register(t, &m.Mock)
	return m
}

// Set records the call and returns the configured error.
func (m *MockTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

// Take records the call and returns the configured value and error.
func (m *MockTokenStore) Take(ctx context.Context, key string) (string, error) {
	ret := m.Called(ctx, key)
	return ret.String(0), ret.Error(1)
}

// MockPasswordHasher mocks account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	register(t, &m.Mock)
	return m
}

// Hash records the call and returns the configured hash and error.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify records the call and returns the configured match and error.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// MockMailer mocks account.Mailer.
type MockMailer struct {
	mock.Mock
}

// NewMockMailer creates a mock that asserts its expectations on cleanup.
func NewMockMailer(t TestingT) *MockMailer {
	m := &MockMailer{}
	register(t, &m.Mock)
	return m
}

// Send records the call and returns the configured error.
func (m *MockMailer) Send(ctx context.Context, to, htmlBody string) error {
	return m.Called(ctx, to, htmlBody).Error(0)
}

// Compile-time interface checks.
var (
	_ account.UserRepository = (*MockUserRepository)(nil)
	_ account.TokenStore     = (*MockTokenStore)(nil)
	_ account.PasswordHasher = (*MockPasswordHasher)(nil)
	_ account.Mailer         = (*MockMailer)(nil)
)
