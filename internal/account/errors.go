// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import "errors"

// ErrNotFound is returned when a requested user or token does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")
