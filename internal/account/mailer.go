// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import (
	"context"
	"fmt"
	"html"
)

// DefaultResetURL is the page that receives reset tokens.
const DefaultResetURL = "http://localhost:3000/change-password/"

// Mailer delivers an HTML message to an address.
type Mailer interface {
	Send(ctx context.Context, to, htmlBody string) error
}

// resetMessage builds the body of a password reset email.
func resetMessage(baseURL, token string) string {
	return fmt.Sprintf(`<a href="%s">reset password</a>`, html.EscapeString(baseURL+token))
}
