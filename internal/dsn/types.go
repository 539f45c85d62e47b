// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn resolves database connection settings for gptsql. It parses
// connection URLs for both supported engines, turns them into a Descriptor and
// renders the driver-specific connection strings the gateway opens.
package dsn

import (
	"fmt"
	"strings"
)

// DBType represents the type of database. The values are the ones stored in
// the DBTYPE key of the config record.
type DBType string

const (
	DBTypePostgreSQL  DBType = "PostgreSQL"
	DBTypeSingleStore DBType = "SingleStore"
	DBTypeUnknown     DBType = "unknown"
)

// Default ports per engine.
const (
	PostgresDefaultPort    = 5432
	SingleStoreDefaultPort = 3306
)

// DefaultPort returns the port used when none is configured.
func (t DBType) DefaultPort() int {
	if t == DBTypePostgreSQL {
		return PostgresDefaultPort
	}
	return SingleStoreDefaultPort
}

// ParseType maps user input such as "postgres" or "mysql" to a DBType.
// An empty string selects SingleStore, matching the historical default.
func ParseType(s string) (DBType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return DBTypePostgreSQL, nil
	case "", "singlestore", "singlestoredb", "s2", "mysql", "memsql":
		return DBTypeSingleStore, nil
	}
	return DBTypeUnknown, fmt.Errorf("unknown database type %q (use PostgreSQL or SingleStore)", s)
}

// DSNInfo contains parsed information from a DSN string
type DSNInfo struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// String returns the DSN the info was parsed from.
func (d *DSNInfo) String() string {
	return d.Original
}

// Resolver is an interface for database-specific DSN resolution
type Resolver interface {
	// Parse parses a DSN string and returns normalized DSN info
	Parse(dsn string) (*DSNInfo, error)

	// Normalize converts DSN info to the connection string the driver expects
	Normalize(info *DSNInfo) (string, error)
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}
