// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"gptsql/cli/internal/config"
	"gptsql/cli/internal/dsn"
	"gptsql/cli/internal/keychain"
)

// connectionSource names where the resolved connection came from.
func connectionSource(rec config.Record) string {
	switch {
	case rec.HasConnection():
		return "saved config"
	case flags.dsn != "" || flags.host != "":
		return "command-line flags"
	default:
		return "environment"
	}
}

// resolveConnection applies the saved record, the flags and the
// environment in that order of precedence.
func resolveConnection(rec config.Record, sec secrets) (dsn.Descriptor, error) {
	saved := dsn.Fields{
		Type:     rec.DBType,
		Host:     rec.DBHost,
		Port:     int(rec.DBPort),
		User:     rec.DBUser,
		Database: rec.DBName,
	}
	if saved.HasConnection() {
		saved.Password = sec.load(keychain.KeyDBPassword, rec.DBPassword)
	}
	fromFlags := dsn.Fields{
		Type:     flags.dbType,
		Host:     flags.host,
		Port:     flags.port,
		User:     flags.user,
		Password: flags.password,
		Database: flags.dbName,
		URL:      strings.TrimSpace(flags.dsn),
	}
	fromEnv := dsn.Fields{
		Type:     env.DBType,
		Host:     env.DBHost,
		Port:     env.DBPort,
		User:     env.DBUser,
		Password: env.DBPassword,
		Database: env.DBName,
		URL:      strings.TrimSpace(env.DatabaseURL),
	}
	return dsn.Resolve(saved, fromFlags, fromEnv)
}
