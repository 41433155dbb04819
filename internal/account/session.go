// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import "context"

// Session is the server-side state of one client. A Session belongs to a
// single request/response exchange; implementations persist it elsewhere.
type Session interface {
	// UserID returns the logged-in user, if any.
	UserID() (int64, bool)

	// SetUserID marks the session as authenticated for id, creating the
	// session record if it does not exist yet.
	SetUserID(ctx context.Context, id int64) error

	// Destroy deletes the session record.
	Destroy(ctx context.Context) error

	// ClearCookie tells the client to forget the session identifier.
	ClearCookie()
}
