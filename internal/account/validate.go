// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import (
	"strings"
	"unicode/utf16"
)

// Registration constraints. Lengths are in UTF-16 code units, so a
// character outside the Basic Multilingual Plane counts twice.
const (
	MinUsernameLength = 3
	MinPasswordLength = 4
)

// Validation messages.
const (
	msgInvalidEmail     = "invalid email"
	msgUsernameTooShort = "username length must be greater than 2"
	msgUsernameHasAt    = "cannot include @"
	msgPasswordTooShort = "password length must be greater than 3"
)

// Validate checks registration input. Rules are checked in a fixed order
// (email, username length, username "@", password length) and only the
// first violation is reported. A nil result means the input is acceptable.
func Validate(in RegisterInput) []FieldError {
	if !strings.Contains(in.Email, "@") {
		return []FieldError{{Field: "email", Message: msgInvalidEmail}}
	}
	if textLength(in.Username) < MinUsernameLength {
		return []FieldError{{Field: "username", Message: msgUsernameTooShort}}
	}
	if strings.Contains(in.Username, "@") {
		return []FieldError{{Field: "username", Message: msgUsernameHasAt}}
	}
	if !validPassword(in.Password) {
		return []FieldError{{Field: "password", Message: msgPasswordTooShort}}
	}
	return nil
}

func validPassword(password string) bool {
	return textLength(password) >= MinPasswordLength
}

// textLength counts UTF-16 code units. Invalid UTF-8 bytes decode to
// U+FFFD and count as one unit each.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
