// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package xdg locates accountd files under the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "accountd"

// configFileName is the file looked up in ConfigDir.
const configFileName = "config.yaml"

// ConfigDir returns the XDG config directory for accountd.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", oops.Code("XDG_HOME_UNKNOWN").Wrap(err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// ConfigFile returns the path of the default config file. The file may
// not exist.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// ResolveConfigFile returns explicit if set. Otherwise it returns the
// default config file if one exists, or "" if there is none.
func ResolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	path, err := ConfigFile()
	if err != nil {
		// No home directory means no default file.
		return "", nil //nolint:nilerr // absence of a default is not an error
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
}
