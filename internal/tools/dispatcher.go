// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tools executes the function tools the assistant calls. Every call
// produces a string for the assistant; failures are reported in that string
// rather than returned, so a bad query never aborts a run.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/journal"
	"gptsql/cli/internal/logging"
	"gptsql/cli/internal/sqlexec"
)

// Output bounds for run_sql_command.
const (
	DefaultMaxRows  = 20
	DefaultMaxChars = 4000
)

// Recorder receives one entry per executed statement.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Dispatcher routes tool calls to the database gateway.
type Dispatcher struct {
	gw       sqlexec.Gateway
	cache    ResultCache
	recorder Recorder

	MaxRows  int
	MaxChars int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache replaces the default in-memory result cache.
func WithCache(c ResultCache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithRecorder journals every executed statement.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithLimits overrides the row and character bounds.
func WithLimits(rows, chars int) Option {
	return func(d *Dispatcher) {
		d.MaxRows = rows
		d.MaxChars = chars
	}
}

func New(gw sqlexec.Gateway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gw:       gw,
		cache:    NewMemoryCache(),
		MaxRows:  DefaultMaxRows,
		MaxChars: DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs tool name with its JSON arguments. scope keys the result
// cache, normally the thread id.
func (d *Dispatcher) Dispatch(ctx context.Context, scope, name, arguments string) string {
	log.Debug().Str("tool", name).Str("scope", scope).Msg("dispatch tool call")
	switch name {
	case RunSQLCommand:
		return d.runSQL(ctx, scope, arguments)
	case ShowLongResults:
		return d.showCached(ctx, scope)
	}
	return fmt.Sprintf("unknown tool %q", name)
}

type sqlArgs struct {
	Query *string `json:"query"`
}

func (d *Dispatcher) runSQL(ctx context.Context, scope, arguments string) string {
	var args sqlArgs
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Sprintf("error: invalid arguments for %s: %v", RunSQLCommand, err)
		}
	}
	if args.Query == nil || strings.TrimSpace(*args.Query) == "" {
		return fmt.Sprintf("error: %s requires a \"query\" argument", RunSQLCommand)
	}
	query := *args.Query

	start := time.Now()
	res, err := d.gw.Execute(ctx, query)
	d.record(ctx, scope, query, res, err, time.Since(start))
	if err != nil {
		log.Debug().Str("error", logging.Mask(err.Error())).Msg("statement failed")
		return "error: " + err.Error()
	}

	if !res.IsQuery() {
		cmd := res.Command
		if cmd == "" {
			cmd = "OK"
		}
		return fmt.Sprintf("%s (%s affected)", cmd, rowCount(int(res.RowsAffected)))
	}
	return d.bound(ctx, scope, res)
}

// bound renders res and cuts it to MaxRows rows and MaxChars characters,
// marker included. The full rendering is cached whenever something was cut.
func (d *Dispatcher) bound(ctx context.Context, scope string, res *sqlexec.Result) string {
	table, offsets := renderTable(res)
	total := len(res.Rows)
	full := table + "(" + rowCount(total) + ")\n"
	if total <= d.MaxRows && len(full) <= d.MaxChars {
		return full
	}

	// The marker is longest when every row is omitted; reserve that much.
	budget := max(d.MaxChars-len(omitted(total, total))-1, 0)
	shown := min(total, d.MaxRows)
	for shown > 0 && offsets[1+shown] > budget {
		shown--
	}
	cut := min(offsets[1+shown], budget)
	for cut > 0 && cut < len(table) && !utf8.RuneStart(table[cut]) {
		cut--
	}
	out := table[:cut]
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += omitted(total-shown, total)

	if err := d.cache.Put(ctx, scope, full); err != nil {
		log.Warn().Err(err).Msg("could not cache full query result")
	}
	return out
}

func omitted(n, total int) string {
	return fmt.Sprintf("... %d of %s omitted. Ask to %q to see everything.", n, rowCount(total), printAllResultsCue)
}

func (d *Dispatcher) showCached(ctx context.Context, scope string) string {
	text, ok, err := d.cache.Get(ctx, scope)
	if err != nil {
		return "error: " + err.Error()
	}
	if !ok {
		return "There are no long query results to show. Run a query first."
	}
	return text
}

func (d *Dispatcher) record(ctx context.Context, scope, query string, res *sqlexec.Result, execErr error, elapsed time.Duration) {
	if d.recorder == nil {
		return
	}
	e := journal.Entry{
		ThreadID:   scope,
		Query:      query,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	switch {
	case execErr != nil:
		e.Error = execErr.Error()
	case res.IsQuery():
		e.Rows = len(res.Rows)
	default:
		e.Rows = int(res.RowsAffected)
	}
	if err := d.recorder.Record(ctx, e); err != nil {
		log.Warn().Err(err).Msg("could not journal statement")
	}
}
