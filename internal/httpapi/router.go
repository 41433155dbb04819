// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package httpapi exposes the account operations over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Options configures the router.
type Options struct {
	Logger   *slog.Logger
	Recorder HTTPRecorder
	Timeout  time.Duration
}

// NewRouter mounts h under /api.
func NewRouter(h *Handler, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopHTTPRecorder{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(opts.Logger, opts.Recorder))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(opts.Timeout))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/change-password", h.changePassword)
	})

	return r
}
