// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/infinitejoke/accounts/internal/errutil"
)

const tracerName = "github.com/infinitejoke/accounts/internal/account"

// Operation outcomes reported to the Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
	OutcomeMailFailed = "mail_failed"
)

// Messages for rejected operations.
const (
	msgUsernameTaken      = "username already taken"
	msgUnknownUsername    = "that username doesn't exist"
	msgIncorrect          = "incorrect"
	msgTokenExpired       = "token expired"
	msgUserNoLongerExists = "user no longer exists"
)

// Recorder counts operation outcomes.
type Recorder interface {
	RecordOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string) {}

// Service implements registration, login, logout, session lookup and the
// password reset flow.
type Service struct {
	users    UserRepository
	tokens   TokenStore
	hasher   PasswordHasher
	mailer   Mailer
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	resetURL string
	resetTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for infrastructure failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithResetURL sets the base URL the reset token is appended to.
func WithResetURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.resetURL = url
		}
	}
}

// WithResetTokenTTL sets how long a reset token stays valid.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// NewService creates a Service. All collaborators are required.
func NewService(users UserRepository, tokens TokenStore, hasher PasswordHasher, mailer Mailer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("ACCOUNT_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("ACCOUNT_INVALID_DEPENDENCY").Errorf("token store is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNT_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if mailer == nil {
		return nil, oops.Code("ACCOUNT_INVALID_DEPENDENCY").Errorf("mailer is required")
	}

	s := &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
		resetURL: DefaultResetURL,
		resetTTL: ResetTokenExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the input, creates the user and logs the session in.
func (s *Service) Register(ctx context.Context, sess Session, in RegisterInput) (resp *UserResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "account.Register")
	defer func() { s.finish(span, "register", outcomeOf(resp), err) }()

	if errs := Validate(in); errs != nil {
		return &UserResponse{Errors: errs}, nil
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The store does not say which column collided; both are reported
		// against the username.
		if errors.Is(err, ErrConflict) {
			return rejected("username", msgUsernameTaken), nil
		}
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "create user").
			With("username", in.Username).
			Wrap(err)
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, oops.Code("ACCOUNT_SESSION_FAILED").
			With("operation", "set session user").
			With("user_id", user.ID).
			Wrap(err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return accepted(user), nil
}

// Login authenticates by username, or by email when the identifier
// contains "@", and logs the session in.
func (s *Service) Login(ctx context.Context, sess Session, usernameOrEmail, password string) (resp *UserResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "account.Login")
	defer func() { s.finish(span, "login", outcomeOf(resp), err) }()

	var user *User
	if strings.Contains(usernameOrEmail, "@") {
		user, err = s.users.GetByEmail(ctx, usernameOrEmail)
	} else {
		user, err = s.users.GetByUsername(ctx, usernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected("usernameOrEmail", msgUnknownUsername), nil
		}
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "get user").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !valid {
		return rejected("password", msgIncorrect), nil
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, oops.Code("ACCOUNT_SESSION_FAILED").
			With("operation", "set session user").
			With("user_id", user.ID).
			Wrap(err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return accepted(user), nil
}

// Logout destroys the session and always clears the client cookie.
// It reports whether the session record was destroyed.
func (s *Service) Logout(ctx context.Context, sess Session) bool {
	ctx, span := s.tracer.Start(ctx, "account.Logout")
	defer span.End()

	err := sess.Destroy(ctx)
	sess.ClearCookie()
	if err != nil {
		err = oops.Code("ACCOUNT_LOGOUT_FAILED").
			With("operation", "destroy session").
			Wrap(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "logout failed")
		errutil.LogError(s.logger.With("operation", "logout"), "session destroy failed", err)
		s.recorder.RecordOperation("logout", OutcomeError)
		return false
	}

	s.recorder.RecordOperation("logout", OutcomeOK)
	return true
}

// Me returns the logged-in user, or nil if the session is anonymous or its
// user no longer exists.
func (s *Service) Me(ctx context.Context, sess Session) (user *User, err error) {
	ctx, span := s.tracer.Start(ctx, "account.Me")
	defer func() { s.finish(span, "me", OutcomeOK, err) }()

	id, ok := sess.UserID()
	if !ok {
		return nil, nil
	}

	user, err = s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("ACCOUNT_ME_FAILED").
			With("operation", "get user by id").
			With("user_id", id).
			Wrap(err)
	}
	return user.redacted(), nil
}

// ForgotPassword issues a reset token for the account with the given email
// and mails a reset link to it. Unknown addresses succeed silently so that
// callers cannot probe for accounts. A failed delivery is logged but not
// reported to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) (ok bool, err error) {
	ctx, span := s.tracer.Start(ctx, "account.ForgotPassword")
	outcome := OutcomeOK
	defer func() { s.finish(span, "forgot_password", outcome, err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, err := NewResetToken()
	if err != nil {
		return false, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	if err := s.tokens.Set(ctx, ResetTokenKey(token), strconv.FormatInt(user.ID, 10), s.resetTTL); err != nil {
		return false, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store token").
			With("user_id", user.ID).
			Wrap(err)
	}

	if sendErr := s.mailer.Send(ctx, user.Email, resetMessage(s.resetURL, token)); sendErr != nil {
		sendErr = oops.Code("RESET_MAIL_FAILED").
			With("user_id", user.ID).
			Wrap(sendErr)
		span.RecordError(sendErr)
		errutil.LogError(s.logger.With("operation", "forgot_password"), "reset email not delivered", sendErr)
		outcome = OutcomeMailFailed
	}

	return true, nil
}

// ChangePassword redeems a reset token, sets the new password and logs the
// session in as that user. A token can be redeemed once: it is consumed
// before the user is loaded, so if the lookup, hash or update then fails
// the token is gone and the user must request another reset email.
func (s *Service) ChangePassword(ctx context.Context, sess Session, token, newPassword string) (resp *UserResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "account.ChangePassword")
	defer func() { s.finish(span, "change_password", outcomeOf(resp), err) }()

	if !validPassword(newPassword) {
		return rejected("newPassword", msgPasswordTooShort), nil
	}

	value, err := s.tokens.Take(ctx, ResetTokenKey(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected("token", msgTokenExpired), nil
		}
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "take token").
			Wrap(err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_CORRUPT").
			With("value", value).
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected("token", msgUserNoLongerExists), nil
		}
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "get user by id").
			With("user_id", id).
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user.SetPassword(hash)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected("token", msgUserNoLongerExists), nil
		}
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update user").
			With("user_id", id).
			Wrap(err)
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, oops.Code("ACCOUNT_SESSION_FAILED").
			With("operation", "set session user").
			With("user_id", user.ID).
			Wrap(err)
	}

	return accepted(user), nil
}

func outcomeOf(resp *UserResponse) string {
	if resp != nil && !resp.OK() {
		return OutcomeRejected
	}
	return OutcomeOK
}

// finish ends the span and records the outcome of an operation. A non-nil
// err overrides outcome.
func (s *Service) finish(span trace.Span, operation, outcome string, err error) {
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
		errutil.LogError(s.logger.With("operation", operation), "account operation failed", err)
		outcome = OutcomeError
	}
	s.recorder.RecordOperation(operation, outcome)
}
