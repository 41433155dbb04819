// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/infinitejoke/accounts/internal/session"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "qid"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// cookieJar writes the session cookie on one response. Cookies are headers,
// so it must be used before the body is written.
type cookieJar struct {
	w   http.ResponseWriter
	cfg CookieConfig
}

func (j cookieJar) SetID(id string, maxAge time.Duration) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     j.cfg.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   j.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j cookieJar) Clear() {
	http.SetCookie(j.w, &http.Cookie{
		Name:     j.cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   j.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ session.CookieJar = cookieJar{}
