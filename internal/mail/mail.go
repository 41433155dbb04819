// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package mail delivers account emails.
package mail

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"

	"github.com/infinitejoke/accounts/internal/account"
)

// Subject is the subject line of reset emails.
const Subject = "Change password"

// SMTPConfig describes the outbound SMTP server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP server.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender creates an SMTPSender. Authentication is used only when a
// username is configured. STARTTLS is used when the server offers it.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender address is required")
	}

	opts := []gomail.Option{gomail.WithTLSPolicy(gomail.TLSOpportunistic)}
	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers htmlBody to the given address.
func (s *SMTPSender) Send(ctx context.Context, to, htmlBody string) error {
	msg, err := newMessage(s.from, to, htmlBody)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("to", to).Wrap(err)
	}
	return nil
}

func newMessage(from, to, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, oops.Code("MAIL_ADDRESS_INVALID").With("from", from).Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return nil, oops.Code("MAIL_ADDRESS_INVALID").With("to", to).Wrap(err)
	}
	msg.Subject(Subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

// LogSender writes messages to a logger instead of delivering them. It is
// meant for development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, to, htmlBody string) error {
	s.logger.InfoContext(ctx, "mail not delivered, logging instead",
		"to", to,
		"subject", Subject,
		"body", htmlBody)
	return nil
}

// Compile-time interface checks.
var (
	_ account.Mailer = (*SMTPSender)(nil)
	_ account.Mailer = (*LogSender)(nil)
)
