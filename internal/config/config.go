// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package config loads accountd settings from flags, a YAML file and the
// environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/logging"
	"github.com/infinitejoke/accounts/internal/session"
)

// Mailer kinds.
const (
	MailerLog  = "log"
	MailerSMTP = "smtp"
)

// Config holds every accountd setting.
type Config struct {
	HTTPAddr    string `koanf:"http-addr"`
	MetricsAddr string `koanf:"metrics-addr"`
	LogFormat   string `koanf:"log-format"`
	LogLevel    string `koanf:"log-level"`

	DatabaseURL string `koanf:"database-url"`
	AutoMigrate bool   `koanf:"auto-migrate"`

	RedisAddr     string `koanf:"redis-addr"`
	RedisPassword string `koanf:"redis-password"`
	RedisDB       int    `koanf:"redis-db"`

	CookieName    string        `koanf:"cookie-name"`
	CookieSecure  bool          `koanf:"cookie-secure"`
	SessionTTL    time.Duration `koanf:"session-ttl"`
	ResetTokenTTL time.Duration `koanf:"reset-token-ttl"`
	ResetURL      string        `koanf:"reset-url"`

	Mailer       string `koanf:"mailer"`
	SMTPHost     string `koanf:"smtp-host"`
	SMTPPort     int    `koanf:"smtp-port"`
	SMTPUsername string `koanf:"smtp-username"`
	SMTPPassword string `koanf:"smtp-password"`
	SMTPFrom     string `koanf:"smtp-from"`

	Argon2Time    uint32 `koanf:"argon2-time"`
	Argon2Memory  uint32 `koanf:"argon2-memory"`
	Argon2Threads uint8  `koanf:"argon2-threads"`
}

// envOverrides maps environment variables to the keys they set. Secrets
// are usually passed this way rather than in the file.
var envOverrides = map[string]string{
	"DATABASE_URL":   "database-url",
	"REDIS_PASSWORD": "redis-password",
	"SMTP_PASSWORD":  "smtp-password",
}

// RegisterFlags adds a flag for every setting to fs. The flag defaults are
// the configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", "127.0.0.1:4000", "API listen address")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", "json", "log format (json or text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")

	fs.String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL)")
	fs.Bool("auto-migrate", true, "apply pending migrations on startup")

	fs.String("redis-addr", "127.0.0.1:6379", "Redis address")
	fs.String("redis-password", "", "Redis password (or REDIS_PASSWORD)")
	fs.Int("redis-db", 0, "Redis database number")

	fs.String("cookie-name", "qid", "session cookie name")
	fs.Bool("cookie-secure", false, "mark the session cookie Secure")
	fs.Duration("session-ttl", session.DefaultTTL, "session lifetime")
	fs.Duration("reset-token-ttl", account.ResetTokenExpiry, "password reset token lifetime")
	fs.String("reset-url", account.DefaultResetURL, "base URL reset tokens are appended to")

	fs.String("mailer", MailerLog, "mail delivery (log or smtp)")
	fs.String("smtp-host", "", "SMTP server host")
	fs.Int("smtp-port", 587, "SMTP server port")
	fs.String("smtp-username", "", "SMTP username")
	fs.String("smtp-password", "", "SMTP password (or SMTP_PASSWORD)")
	fs.String("smtp-from", "", "sender address")

	fs.Uint32("argon2-time", account.DefaultArgon2Params.Time, "argon2id iterations")
	fs.Uint32("argon2-memory", account.DefaultArgon2Params.Memory, "argon2id memory in KiB")
	fs.Uint8("argon2-threads", account.DefaultArgon2Params.Threads, "argon2id parallelism")
}

// Load reads the configuration. Later sources win: flag defaults, then the
// YAML file at path (if any), then flags set on the command line, then the
// environment overrides. A nil fs means no command line.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	if fs == nil {
		fs = pflag.NewFlagSet("config", pflag.ContinueOnError)
		RegisterFlags(fs)
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	// With k passed in, unchanged flags only fill keys the file left unset.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_READ_FAILED").With("operation", "load flags").Wrap(err)
	}

	for env, key := range envOverrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_READ_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return &cfg, nil
}

// Default returns the configuration with every setting at its default.
// Environment overrides still apply.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic(err) // flag defaults always decode
	}
	return cfg
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return invalid("http-addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid("log-level %q is not a level", c.LogLevel)
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.RedisAddr == "" {
		return invalid("redis-addr is required")
	}
	if c.CookieName == "" {
		return invalid("cookie-name is required")
	}
	if c.SessionTTL <= 0 {
		return invalid("session-ttl must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return invalid("reset-token-ttl must be positive")
	}
	if c.ResetURL == "" {
		return invalid("reset-url is required")
	}
	switch c.Mailer {
	case MailerLog:
	case MailerSMTP:
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return invalid("smtp-host and smtp-from are required when mailer is smtp")
		}
	default:
		return invalid("mailer must be 'log' or 'smtp', got %q", c.Mailer)
	}
	if c.Argon2Threads == 0 {
		return invalid("argon2-threads must be at least 1")
	}
	return nil
}

// ValidateDatabase checks only the database settings. Commands that touch
// nothing else, such as migrate, use it instead of Validate.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return invalid("database-url (or DATABASE_URL) is required")
	}
	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return invalid("database-url must be a postgres:// URL")
	}
	return nil
}

// Argon2 returns the password hashing parameters.
func (c *Config) Argon2() account.Argon2Params {
	return account.Argon2Params{Time: c.Argon2Time, Memory: c.Argon2Memory, Threads: c.Argon2Threads}
}

func invalid(format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").Errorf(format, args...)
}
