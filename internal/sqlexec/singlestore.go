// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

// An empty database falls back to the connection's current one.
const singleStoreTablesSQL = `SELECT table_name
FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

// SingleStore executes statements over database/sql with the MySQL driver.
type SingleStore struct {
	DB *sql.DB
}

func openSingleStore(dsn string) (*SingleStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SingleStore{DB: db}, nil
}

// returnsRows reports whether a statement produces a result set, judged by
// its leading keyword. database/sql needs to know up front whether to Query or Exec.
func returnsRows(stmt string) bool {
	kw := strings.ToUpper(firstKeyword(stmt))
	switch kw {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "VALUES", "TABLE", "PROFILE":
		return true
	}
	return false
}

func firstKeyword(stmt string) string {
	s := strings.TrimLeft(stmt, " \t\r\n(")
	for strings.HasPrefix(s, "--") || strings.HasPrefix(s, "/*") {
		if strings.HasPrefix(s, "--") {
			_, rest, ok := strings.Cut(s, "\n")
			if !ok {
				return ""
			}
			s = rest
		} else {
			_, rest, ok := strings.Cut(s, "*/")
			if !ok {
				return ""
			}
			s = rest
		}
		s = strings.TrimLeft(s, " \t\r\n(")
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if end == -1 {
		return s
	}
	return s[:end]
}

// Execute runs sql as a query or an exec depending on its leading keyword.
func (s *SingleStore) Execute(ctx context.Context, stmt string) (*Result, error) {
	if !returnsRows(stmt) {
		r, err := s.DB.ExecContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		res := &Result{Command: strings.ToUpper(firstKeyword(stmt))}
		if n, err := r.RowsAffected(); err == nil {
			res.RowsAffected = n
		}
		log.Debug().Str("command", res.Command).Int64("affected", res.RowsAffected).Msg("singlestore exec done")
		return res, nil
	}

	rows, err := s.DB.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: cols, Command: strings.ToUpper(firstKeyword(stmt))}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, normalizeRow(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("command", res.Command).Int("rows", len(res.Rows)).Msg("singlestore query done")
	return res, nil
}

func (s *SingleStore) ListTables(ctx context.Context, database string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, singleStoreTablesSQL, database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortedNames(names), nil
}

func (s *SingleStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SingleStore) Version(ctx context.Context) (string, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, "SELECT version()").Scan(&v)
	return v, err
}

func (s *SingleStore) Close() {
	_ = s.DB.Close()
}
