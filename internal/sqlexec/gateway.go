// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec is the database gateway. It owns the single connection a
// gptsql process holds and runs the statements the assistant asks for,
// exactly as given, on PostgreSQL (pgxpool) or SingleStore (go-sql-driver/mysql).
package sqlexec

import (
	"context"
	"fmt"
	"sort"

	"gptsql/cli/internal/dsn"
)

// Gateway runs statements against the connected database.
type Gateway interface {
	// Execute runs exactly sql. Driver errors are returned unchanged.
	Execute(ctx context.Context, sql string) (*Result, error)
	// ListTables returns the user tables of database, sorted.
	ListTables(ctx context.Context, database string) ([]string, error)
	Ping(ctx context.Context) error
	// Version returns the server version string from SELECT version().
	Version(ctx context.Context) (string, error)
	Close()
}

// Open connects to the database d describes and verifies the connection.
func Open(ctx context.Context, d dsn.Descriptor) (Gateway, error) {
	connString, err := d.ConnString()
	if err != nil {
		return nil, err
	}
	var gw Gateway
	switch d.Type {
	case dsn.DBTypePostgreSQL:
		gw, err = openPostgres(ctx, connString)
	case dsn.DBTypeSingleStore:
		gw, err = openSingleStore(connString)
	default:
		return nil, fmt.Errorf("unsupported database type %q", d.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := gw.Ping(ctx); err != nil {
		gw.Close()
		return nil, err
	}
	return gw, nil
}

func sortedNames(names []string) []string {
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names
}
