// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"database/sql/driver"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Result is the outcome of one statement. Queries fill Columns and Rows;
// other statements fill RowsAffected and Command.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
	// Command is the statement tag, e.g. "INSERT 0 3" on Postgres or "UPDATE" on SingleStore.
	Command string
}

// IsQuery reports whether the statement produced a row set.
func (r *Result) IsQuery() bool {
	return len(r.Columns) > 0
}

// normalizeValue converts driver values into plain Go values that print
// readably: UUIDs as canonical text, byte slices as text or \x hex, times as
// RFC 3339 and driver.Valuer types (pgtype.Numeric and friends) through Value.
func normalizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(v).String()
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		if len(v) == 16 {
			if id, err := uuid.FromBytes(v); err == nil {
				return id.String()
			}
		}
		return fmt.Sprintf("\\x%x", v)
	case time.Time:
		return v.Format(time.RFC3339)
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return fmt.Sprint(val)
		}
		return normalizeValue(dv)
	}
	return val
}

func normalizeRow(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = normalizeValue(v)
	}
	return out
}
