// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package account implements the user-credential lifecycle.
//
// # Domain Types
//
// A User is created by Service.Register and its password is only ever
// changed by Service.ChangePassword. Expected failures (bad input, taken
// username, wrong password, expired token) are returned as data in a
// UserResponse; only infrastructure faults are returned as errors.
//
// # Collaborators
//
// The service depends on interfaces implemented elsewhere:
//   - UserRepository - durable user records (see package postgres)
//   - TokenStore - expiring reset tokens (see package redis)
//   - Session - per-client session state (see package session)
//   - Mailer - outbound messages (see package mail)
//
// In-memory implementations for tests live in package accounttest.
package account
