// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg provides helpers to resolve XDG Base Directory paths for gptsql.
// The state directory holds everything gptsql writes besides the config record:
// the readline history, the diagnostics log and the query journal.
//
// The package handles fallback to traditional locations when XDG environment
// variables are not set and creates the directories with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "gptsql"

// StateDir returns the XDG state directory for gptsql.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/gptsql when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

// StatePath joins name onto the state directory.
func StatePath(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigFile returns the path of the config record: ~/.gptsql unless
// GPTSQL_CONFIG points elsewhere.
func ConfigFile() (string, error) {
	if p := os.Getenv("GPTSQL_CONFIG"); p != "" {
		return filepath.Clean(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+appName), nil
}
