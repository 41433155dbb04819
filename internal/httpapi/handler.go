// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package httpapi

import (
	"context"
	"net/http"

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/errutil"
	"github.com/infinitejoke/accounts/internal/logging"
	"github.com/infinitejoke/accounts/internal/session"
)

// AccountService is implemented by *account.Service.
type AccountService interface {
	Register(ctx context.Context, sess account.Session, in account.RegisterInput) (*account.UserResponse, error)
	Login(ctx context.Context, sess account.Session, usernameOrEmail, password string) (*account.UserResponse, error)
	Logout(ctx context.Context, sess account.Session) bool
	Me(ctx context.Context, sess account.Session) (*account.User, error)
	ForgotPassword(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, sess account.Session, token, newPassword string) (*account.UserResponse, error)
}

// SessionLoader resolves the session id a client presented.
type SessionLoader interface {
	Load(ctx context.Context, id string, jar session.CookieJar) (*session.Session, error)
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Handler serves the account operations as JSON.
type Handler struct {
	accounts AccountService
	sessions SessionLoader
	cookie   CookieConfig
}

// NewHandler creates a Handler.
func NewHandler(accounts AccountService, sessions SessionLoader, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &Handler{accounts: accounts, sessions: sessions, cookie: cookie}
}

// session loads the session for this request. Only handlers that need one
// call it, so forgot-password never touches the session store.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		id = c.Value
	}
	return h.sessions.Load(r.Context(), id, cookieJar{w: w, cfg: h.cookie}) //nolint:wrapcheck // logged by respondInternal
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decode(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.session(w, r)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp, err := h.accounts.Register(r.Context(), sess, in)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.session(w, r)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp, err := h.accounts.Login(r.Context(), sess, req.UsernameOrEmail, req.Password)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		// The record cannot be reached, but the client can still forget it.
		cookieJar{w: w, cfg: h.cookie}.Clear()
		errutil.LogError(logging.FromContext(r.Context()), "logout failed", err)
		respondJSON(w, http.StatusOK, false)
		return
	}
	respondJSON(w, http.StatusOK, h.accounts.Logout(r.Context(), sess))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	user, err := h.accounts.Me(r.Context(), sess)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ok)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.session(w, r)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp, err := h.accounts.ChangePassword(r.Context(), sess, req.Token, req.NewPassword)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
