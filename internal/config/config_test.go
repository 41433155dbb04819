// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/errutil"
	"github.com/infinitejoke/accounts/internal/session"
)

// clearEnv keeps the caller's environment out of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for env := range envOverrides {
		t.Setenv(env, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accountd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	cfg := Default()
	cfg.DatabaseURL = "postgres://u:p@localhost/accounts"
	return cfg
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	assert.Equal(t, "127.0.0.1:4000", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "qid", cfg.CookieName)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, session.DefaultTTL, cfg.SessionTTL)
	assert.Equal(t, account.ResetTokenExpiry, cfg.ResetTokenTTL)
	assert.Equal(t, account.DefaultResetURL, cfg.ResetURL)
	assert.Equal(t, MailerLog, cfg.Mailer)
	assert.Equal(t, account.DefaultArgon2Params, cfg.Argon2())
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
http-addr: 0.0.0.0:8080
log-format: text
cookie-secure: true
session-ttl: 24h
redis-db: 2
mailer: smtp
smtp-host: smtp.example.com
smtp-from: noreply@example.com
argon2-threads: 2
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, MailerSMTP, cfg.Mailer)
	assert.Equal(t, uint8(2), cfg.Argon2Threads)
	assert.Equal(t, "qid", cfg.CookieName, "unset keys keep their defaults")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "http-addr: 0.0.0.0:8080\nlog-format: text\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--http-addr", ":9999"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat, "unchanged flags must not override the file")
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env@db/accounts")
	t.Setenv("SMTP_PASSWORD", "s3cret")
	path := writeFile(t, "database-url: postgres://file@db/accounts\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env@db/accounts", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.SMTPPassword)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestLoad_BadValue(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "session-ttl: forever\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing http addr", func(c *Config) { c.HTTPAddr = "" }, "http-addr is required"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log-format"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log-level"},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "database-url"},
		{"non-postgres database url", func(c *Config) { c.DatabaseURL = "mysql://x" }, "postgres://"},
		{"missing redis", func(c *Config) { c.RedisAddr = "" }, "redis-addr"},
		{"missing cookie name", func(c *Config) { c.CookieName = "" }, "cookie-name"},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }, "session-ttl"},
		{"zero reset ttl", func(c *Config) { c.ResetTokenTTL = 0 }, "reset-token-ttl"},
		{"missing reset url", func(c *Config) { c.ResetURL = "" }, "reset-url"},
		{"unknown mailer", func(c *Config) { c.Mailer = "pigeon" }, "mailer"},
		{"smtp without host", func(c *Config) { c.Mailer = MailerSMTP; c.SMTPFrom = "a@x.com" }, "smtp-host"},
		{"smtp complete", func(c *Config) { c.Mailer = MailerSMTP; c.SMTPHost = "h"; c.SMTPFrom = "a@x.com" }, ""},
		{"zero threads", func(c *Config) { c.Argon2Threads = 0 }, "argon2-threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}
