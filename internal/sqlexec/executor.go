// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresTablesSQL = `SELECT table_name
FROM information_schema.tables
WHERE table_schema = ANY (current_schemas(false))
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

// Postgres executes statements over a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, connString string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	// One active connection per process.
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

// Execute runs sql through the extended protocol. Statements without a
// result set report the command tag and rows affected.
func (p *Postgres) Execute(ctx context.Context, sql string) (*Result, error) {
	rows, err := p.Pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &Result{}
	fds := rows.FieldDescriptions()
	for _, fd := range fds {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, normalizeRow(vals))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tag := rows.CommandTag()
	res.Command = tag.String()
	if len(fds) == 0 {
		res.RowsAffected = tag.RowsAffected()
	}
	log.Debug().Str("command", res.Command).Int("rows", len(res.Rows)).Msg("postgres statement done")
	return res, nil
}

// ListTables returns the base tables visible on the search path. The
// connection is already bound to one database, so database is not used.
func (p *Postgres) ListTables(ctx context.Context, _ string) ([]string, error) {
	rows, err := p.Pool.Query(ctx, postgresTablesSQL)
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

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Version(ctx context.Context) (string, error) {
	var v string
	err := p.Pool.QueryRow(ctx, "SELECT version()").Scan(&v)
	return v, err
}

func (p *Postgres) Close() {
	p.Pool.Close()
}
