// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package chat runs the interactive session: it reads user lines, handles
// the local commands, hands everything else to the run driver and prints
// the assistant's new messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	"gptsql/cli/internal/dsn"
	apperrors "gptsql/cli/internal/errors"
	"gptsql/cli/internal/journal"
	"gptsql/cli/internal/logging"
	"gptsql/cli/internal/run"
	"gptsql/cli/internal/sqlexec"
)

const (
	prompt        = "\n> "
	confirmPrompt = "Do you want to start a new thread (y/n)? "
	recentQueries = 20
)

const welcome = `
Welcome to GPTSQL, the chat interface to your SingleStore/Postgres database.
You can ask questions like:
    "help" (show some system commands)
    "show all the tables"
    "show me the first 10 rows of the users table"
    "show me the schema for the orders table"`

const help = `
connection - show the database connection info
history - show the complete message history
new thread - start a new thread
queries - show the last SQL statements the assistant ran
exit`

// Turner drives one turn of the conversation.
type Turner interface {
	Drive(ctx context.Context, threadID, assistantID, content string) (run.Outcome, error)
}

// QueryLog lists recently executed statements.
type QueryLog interface {
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// Deps are the collaborators of a Session. Journal, Progress and Renderer are optional.
type Deps struct {
	Service    assistant.Service
	Driver     Turner
	Gateway    sqlexec.Gateway
	Store      run.Store
	Journal    QueryLog
	Descriptor dsn.Descriptor
	Assistant  assistant.Assistant
	Thread     assistant.Thread

	Input    LineReader
	Output   io.Writer
	Progress Indicator
	Renderer *Renderer
}

// Session is one interactive chat on a thread.
type Session struct {
	Deps
	threadID string
	// interrupts delivers SIGINT to running turns; tests leave it off.
	interrupts bool
}

func New(deps Deps) *Session {
	if deps.Output == nil {
		deps.Output = os.Stdout
	}
	if deps.Progress == nil {
		deps.Progress = NewSpinner(false, io.Discard)
	}
	return &Session{Deps: deps, threadID: deps.Thread.ID}
}

// CatchInterrupts makes Ctrl-C during a turn end that turn instead of the process.
func (s *Session) CatchInterrupts() { s.interrupts = true }

// ThreadID is the thread the session currently talks to.
func (s *Session) ThreadID() string { return s.threadID }

// Run reads and handles lines until exit, end of input or Ctrl-C at the
// prompt. Errors from the assistant service other than a run timeout end
// the session.
func (s *Session) Run(ctx context.Context) error {
	s.println(welcome)
	for {
		line, err := s.Input.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
				return nil
			}
			return err
		}
		done, err := s.handle(ctx, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Session) handle(ctx context.Context, line string) (bool, error) {
	switch line {
	case "":
		return false, nil
	case "exit":
		return true, nil
	case "help":
		s.println(help)
		return false, nil
	case "history":
		return false, s.display(ctx, true)
	case "new thread":
		return false, s.newThread(ctx)
	case "connection":
		s.connection(ctx)
		return false, nil
	case "queries":
		s.queries(ctx)
		return false, nil
	}
	return false, s.turn(ctx, line)
}

func (s *Session) turn(ctx context.Context, input string) error {
	tables, err := s.Gateway.ListTables(ctx, s.Descriptor.Database)
	if err != nil {
		logging.Warn("could not list tables", err)
	}
	content := "These are the tables in the database:\n" + strings.Join(tables, ",") + "\n----\n" + input
	log.Debug().Int("tables", len(tables)).Msg("sending user message")

	tctx := ctx
	if s.interrupts {
		var stop context.CancelFunc
		tctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	s.Progress.Start("thinking...")
	out, err := s.Driver.Drive(tctx, s.threadID, s.Assistant.ID, content)
	s.Progress.Stop()

	switch {
	case err == nil:
	case errors.Is(err, apperrors.RunTimeout):
		logging.Warn("the assistant did not answer in time", err)
		return nil
	case tctx.Err() != nil && ctx.Err() == nil:
		s.println("interrupted")
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		return err
	}

	if !out.Succeeded() {
		msg := fmt.Sprintf("run %s", out.Status)
		if out.LastError != "" {
			msg += ": " + out.LastError
		}
		s.println(msg)
	}
	return s.display(ctx, false)
}

// display prints new assistant messages, or every message when all is set,
// advancing the watermark after each one.
func (s *Session) display(ctx context.Context, all bool) error {
	msgs, err := s.Service.ListMessages(ctx, s.threadID)
	if err != nil {
		return err
	}
	watermark := s.Store.Record().LastMessageTime
	if !all {
		msgs = NewMessages(msgs, watermark)
	}
	for _, m := range msgs {
		s.println(s.Renderer.Message(m))
		if !m.CreatedAt.After(watermark) {
			continue
		}
		watermark = m.CreatedAt
		if err := s.Store.Update(func(r *config.Record) { r.LastMessageTime = watermark }); err != nil {
			return fmt.Errorf("failed to save message watermark: %w", err)
		}
	}
	return nil
}

func (s *Session) newThread(ctx context.Context) error {
	answer, err := s.Input.Prompt(confirmPrompt)
	if err != nil || answer != "y" {
		return nil
	}
	th, err := newThread(ctx, s.Service, s.Store)
	if err != nil {
		return err
	}
	s.threadID = th.ID
	log.Info().Str("thread", th.ID).Msg("started new thread")
	return nil
}

func (s *Session) connection(ctx context.Context) {
	s.println(s.Descriptor.Summary())
	s.println("Model: " + s.Assistant.Model)
	version, err := s.Gateway.Version(ctx)
	if err != nil {
		logging.Warn("could not read server version", err)
		return
	}
	s.println("Version: " + version)
}

func (s *Session) queries(ctx context.Context) {
	if s.Journal == nil {
		s.println("The query journal is not available.")
		return
	}
	entries, err := s.Journal.Recent(ctx, recentQueries)
	if err != nil {
		logging.Warn("could not read the query journal", err)
		return
	}
	if len(entries) == 0 {
		s.println("No queries have been run yet.")
		return
	}
	data := pterm.TableData{{"When", "Rows", "Time", "Query"}}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		rows := strconv.Itoa(e.Rows)
		if e.Error != "" {
			rows = "error"
		}
		data = append(data, []string{
			e.CreatedAt.Local().Format(time.DateTime),
			rows,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			oneLine(e.Query, 80),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		logging.Warn("could not render the query journal", err)
		return
	}
	s.println(table)
}

func oneLine(q string, limit int) string {
	q = strings.Join(strings.Fields(q), " ")
	if r := []rune(q); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return q
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.Output, text)
}
