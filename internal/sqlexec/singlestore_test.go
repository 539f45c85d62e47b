// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"strings"
	"testing"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		stmt string
		want bool
	}{
		{stmt: "SELECT 1", want: true},
		{stmt: "  select * from users", want: true},
		{stmt: "SHOW TABLES", want: true},
		{stmt: "describe orders", want: true},
		{stmt: "(SELECT 1) UNION (SELECT 2)", want: true},
		{stmt: "-- comment\nSELECT 1", want: true},
		{stmt: "/* hint */ WITH x AS (SELECT 1) SELECT * FROM x", want: true},
		{stmt: "INSERT INTO t VALUES (1)", want: false},
		{stmt: "update t set a = 1", want: false},
		{stmt: "CREATE TABLE t (id INT)", want: false},
		{stmt: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			if got := returnsRows(tt.stmt); got != tt.want {
				t.Errorf("returnsRows(%q) = %v, want %v", tt.stmt, got, tt.want)
			}
		})
	}
}

func TestFirstKeyword(t *testing.T) {
	if got := firstKeyword("delete from t;"); got != "delete" {
		t.Errorf("firstKeyword() = %q, want delete", got)
	}
	if got := firstKeyword("SELECT(1)"); got != "SELECT" {
		t.Errorf("firstKeyword() = %q, want SELECT", got)
	}
}

func TestListTablesQueriesSkipViews(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "postgres", query: postgresTablesSQL},
		{name: "singlestore", query: singleStoreTablesSQL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.query, "table_type = 'BASE TABLE'") {
				t.Errorf("query does not filter to base tables:\n%s", tt.query)
			}
		})
	}
	if !strings.Contains(singleStoreTablesSQL, "DATABASE()") {
		t.Errorf("singlestore query has no current-database fallback:\n%s", singleStoreTablesSQL)
	}
}
