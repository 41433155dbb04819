// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitejoke/accounts/internal/errutil"
	"github.com/infinitejoke/accounts/internal/store"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	status  store.Status
	err     error
	closed  bool
	gotURLs []string
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	return m.err
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	return m.err
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = n
	return m.err
}

func (m *fakeMigrator) Force(version int) error {
	m.calls = append(m.calls, "force")
	m.forced = version
	return m.err
}

func (m *fakeMigrator) Status() (store.Status, error) {
	m.calls = append(m.calls, "status")
	return m.status, m.err
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

func runMigrate(t *testing.T, m *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/accounts")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""

	cmd := newMigrateCmd(func(url string) (Migrator, error) {
		m.gotURLs = append(m.gotURLs, url)
		return m, nil
	})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Short, "migration")
	assert.Contains(t, cmd.Long, "PostgreSQL")
}

func TestMigrate_DefaultsToUp(t *testing.T) {
	m := &fakeMigrator{}
	out, err := runMigrate(t, m)

	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, m.calls)
	assert.True(t, m.closed)
	assert.Contains(t, out, "Migrations completed successfully")
	assert.Equal(t, []string{"postgres://u:p@localhost/accounts"}, m.gotURLs)
}

func TestMigrate_Up(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "up")

	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, m.calls)
}

func TestMigrate_UpFailure(t *testing.T) {
	m := &fakeMigrator{err: errors.New("boom")}
	_, err := runMigrate(t, m, "up")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
	assert.True(t, m.closed)
}

func TestMigrate_DownRequiresConfirmation(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "down")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	assert.Empty(t, m.calls)
	assert.Empty(t, m.gotURLs, "no migrator is opened before confirmation")
}

func TestMigrate_Down(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "down", "--yes")

	require.NoError(t, err)
	assert.Equal(t, []string{"down"}, m.calls)
}

func TestMigrate_Steps(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "steps", "--", "-1")

	require.NoError(t, err)
	assert.Equal(t, -1, m.steps)
}

func TestMigrate_StepsRejectsZero(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "steps", "0")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_STEPS")
	assert.Empty(t, m.calls)
}

func TestMigrate_Force(t *testing.T) {
	m := &fakeMigrator{}
	out, err := runMigrate(t, m, "force", "2")

	require.NoError(t, err)
	assert.Equal(t, 2, m.forced)
	assert.Contains(t, out, "Forced version 2")
}

func TestMigrate_Status(t *testing.T) {
	m := &fakeMigrator{status: store.Status{Version: 1, Applied: []uint{1}, Pending: []uint{2}}}
	out, err := runMigrate(t, m, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1")
	assert.Contains(t, out, "Dirty: false")
	assert.Contains(t, out, "Applied: 000001_create_users")
	assert.Contains(t, out, "Pending: 000002_users_checks")
}

func TestMigrate_StatusDirty(t *testing.T) {
	m := &fakeMigrator{status: store.Status{Version: 2, Dirty: true, Applied: []uint{1, 2}}}
	out, err := runMigrate(t, m, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Dirty: true")
	assert.Contains(t, out, "Pending: none")
}

func TestMigrate_FlagOverridesEnv(t *testing.T) {
	m := &fakeMigrator{}
	_, err := runMigrate(t, m, "up", "--database-url", "postgresql://other/db")

	require.NoError(t, err)
	assert.Equal(t, []string{"postgresql://other/db"}, m.gotURLs)
}

func TestGetDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		envValue    string
		flagValue   string
		wantURL     string
		wantErrCode string
	}{
		{
			name:        "returns error when DATABASE_URL is empty",
			wantErrCode: "CONFIG_INVALID",
		},
		{
			name:     "returns URL when DATABASE_URL is set",
			envValue: "postgres://localhost:5432/testdb",
			wantURL:  "postgres://localhost:5432/testdb",
		},
		{
			name:      "flag wins over DATABASE_URL",
			envValue:  "postgres://localhost:5432/testdb",
			flagValue: "postgres://elsewhere/db",
			wantURL:   "postgres://elsewhere/db",
		},
		{
			name:        "rejects non-postgres URL",
			flagValue:   "mysql://localhost/db",
			wantErrCode: "CONFIG_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			t.Setenv("DATABASE_URL", tt.envValue)
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())

			url, err := getDatabaseURL(tt.flagValue)

			if tt.wantErrCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				assert.Empty(t, url)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestGetDatabaseURL_DefaultConfigFile(t *testing.T) {
	configFile = ""
	t.Setenv("DATABASE_URL", "")
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "accountd"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(base, "accountd", "config.yaml"),
		[]byte("database-url: postgres://from-file/db\n"), 0o600))

	url, err := getDatabaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-file/db", url)
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "non-numeric returns error", input: "abc", wantErr: true},
		{name: "trailing chars are ignored", input: "3abc", wantVersion: 3},
		{name: "negative parses", input: "-1", wantVersion: -1},
		{name: "empty string returns error", input: "", wantErr: true},
		{name: "whitespace only returns error", input: "   ", wantErr: true},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}
