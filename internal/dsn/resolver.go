// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

// DetectDBType detects the database type from a DSN string
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(dsn)

	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DBTypePostgreSQL
	}
	if strings.HasPrefix(lower, "mysql://") || strings.HasPrefix(lower, "singlestore://") {
		return DBTypeSingleStore
	}
	return DBTypeUnknown
}

func resolverFor(dsn string) (Resolver, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	if r := resolverForType(DetectDBType(dsn)); r != nil {
		return r, nil
	}
	return nil, NewParseError(dsn, "unknown database type", "use postgres://, mysql:// or singlestore://")
}

func resolverForType(t DBType) Resolver {
	switch t {
	case DBTypePostgreSQL:
		return NewPostgreSQLResolver()
	case DBTypeSingleStore:
		return NewSingleStoreResolver()
	}
	return nil
}

// ParseInfo parses a DSN string and returns detailed DSN info
func ParseInfo(dsn string) (*DSNInfo, error) {
	r, err := resolverFor(dsn)
	if err != nil {
		return nil, err
	}
	return r.Parse(dsn)
}
