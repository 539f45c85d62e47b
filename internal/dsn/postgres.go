// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"net/url"
)

// PostgreSQLResolver handles PostgreSQL DSN parsing and normalization
type PostgreSQLResolver struct {
	syntax urlSyntax
}

// NewPostgreSQLResolver creates a new PostgreSQL resolver
func NewPostgreSQLResolver() *PostgreSQLResolver {
	return &PostgreSQLResolver{syntax: urlSyntax{
		typ:         DBTypePostgreSQL,
		schemes:     []string{"postgres", "postgresql"},
		defaultPort: PostgresDefaultPort,
	}}
}

// Parse parses a postgres:// or postgresql:// URL.
func (r *PostgreSQLResolver) Parse(dsn string) (*DSNInfo, error) {
	return r.syntax.parse(dsn)
}

// Normalize renders info as a postgresql:// URL with escaped credentials,
// the form pgxpool.ParseConfig accepts.
func (r *PostgreSQLResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	u := url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(info.Host, info.Port),
		Path:   "/" + info.Database,
	}
	if info.Password != "" {
		u.User = url.UserPassword(info.User, info.Password)
	} else {
		u.User = url.User(info.User)
	}
	if len(info.Params) > 0 {
		q := url.Values{}
		for k, v := range info.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
