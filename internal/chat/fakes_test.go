// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	apperrors "gptsql/cli/internal/errors"
	"gptsql/cli/internal/sqlexec"
)

// scriptedInput replays lines and then reports end of input.
type scriptedInput struct {
	lines   []string
	prompts []string
}

func (s *scriptedInput) Prompt(p string) (string, error) {
	s.prompts = append(s.prompts, p)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Close() error { return nil }

type fakeGateway struct {
	tables   []string
	executed []string
}

func (g *fakeGateway) Execute(_ context.Context, sql string) (*sqlexec.Result, error) {
	g.executed = append(g.executed, sql)
	res := &sqlexec.Result{Columns: []string{"table_name"}}
	for _, t := range g.tables {
		res.Rows = append(res.Rows, []any{t})
	}
	return res, nil
}

func (g *fakeGateway) ListTables(context.Context, string) ([]string, error) { return g.tables, nil }
func (g *fakeGateway) Ping(context.Context) error                          { return nil }
func (g *fakeGateway) Version(context.Context) (string, error)             { return "PostgreSQL 16.1", nil }
func (g *fakeGateway) Close()                                              {}

// fakeService is an in-memory assistants service. A run asks for one
// run_sql_command call, then answers with reply once outputs arrive.
type fakeService struct {
	mu sync.Mutex

	clock      int64
	assistants map[string]assistant.Assistant
	threads    map[string]bool
	messages   map[string][]assistant.Message
	created    []string

	toolQuery   string
	reply       string
	submitted   []assistant.ToolOutput
	retrieveErr error

	// submitErr rejects tool outputs and leaves the run expired.
	submitErr error
	expired   bool
}

func newFakeService() *fakeService {
	return &fakeService{
		clock:      100,
		assistants: map[string]assistant.Assistant{},
		threads:    map[string]bool{},
		messages:   map[string][]assistant.Message{},
		toolQuery:  "SELECT table_name FROM information_schema.tables",
	}
}

func (f *fakeService) tick() time.Time {
	f.clock++
	return time.Unix(f.clock, 0)
}

func (f *fakeService) add(threadID, role, text string) {
	f.messages[threadID] = append(f.messages[threadID], assistant.Message{
		ID:        fmt.Sprintf("msg_%d", f.clock+1),
		Role:      role,
		Text:      text,
		CreatedAt: f.tick(),
	})
}

var errNotFound = apperrors.Wrap(apperrors.NotFound, "lookup", errors.New("404"))

func (f *fakeService) RetrieveAssistant(_ context.Context, id string) (assistant.Assistant, error) {
	if f.retrieveErr != nil {
		return assistant.Assistant{}, f.retrieveErr
	}
	a, ok := f.assistants[id]
	if !ok {
		return assistant.Assistant{}, errNotFound
	}
	return a, nil
}

func (f *fakeService) CreateAssistant(_ context.Context, spec assistant.AssistantSpec) (assistant.Assistant, error) {
	a := assistant.Assistant{ID: fmt.Sprintf("asst_%d", len(f.assistants)+1), Name: spec.Name, Model: spec.Model}
	f.assistants[a.ID] = a
	f.created = append(f.created, a.ID)
	return a, nil
}

func (f *fakeService) RetrieveThread(_ context.Context, id string) (assistant.Thread, error) {
	if !f.threads[id] {
		return assistant.Thread{}, errNotFound
	}
	return assistant.Thread{ID: id}, nil
}

func (f *fakeService) CreateThread(context.Context) (assistant.Thread, error) {
	id := fmt.Sprintf("thread_%d", len(f.threads)+1)
	f.threads[id] = true
	f.created = append(f.created, id)
	return assistant.Thread{ID: id}, nil
}

func (f *fakeService) CreateMessage(_ context.Context, threadID, content string) error {
	f.add(threadID, "user", content)
	return nil
}

func (f *fakeService) ListMessages(_ context.Context, threadID string) ([]assistant.Message, error) {
	return append([]assistant.Message(nil), f.messages[threadID]...), nil
}

func (f *fakeService) CreateRun(context.Context, string, string) (assistant.Run, error) {
	f.submitted = nil
	f.expired = false
	return assistant.Run{ID: "run_1", Status: assistant.StatusQueued}, nil
}

func (f *fakeService) RetrieveRun(_ context.Context, _, runID string) (assistant.Run, error) {
	if f.expired {
		return assistant.Run{ID: runID, Status: assistant.StatusExpired}, nil
	}
	if f.submitted != nil {
		return assistant.Run{ID: runID, Status: assistant.StatusCompleted}, nil
	}
	return assistant.Run{ID: runID, Status: assistant.StatusRequiresAction, RequiredAction: &assistant.RequiredAction{
		Type: assistant.ActionSubmitToolOutputs,
		ToolCalls: []assistant.ToolCall{{
			ID:        "call_1",
			Type:      assistant.ToolTypeFunction,
			Name:      "run_sql_command",
			Arguments: fmt.Sprintf(`{"query": %q}`, f.toolQuery),
		}},
	}}, nil
}

func (f *fakeService) CancelRun(context.Context, string, string) error { return nil }

func (f *fakeService) SubmitToolOutputs(_ context.Context, threadID, runID string, outputs []assistant.ToolOutput) (assistant.Run, error) {
	if f.submitErr != nil {
		f.expired = true
		return assistant.Run{}, f.submitErr
	}
	f.submitted = outputs
	f.add(threadID, "assistant", f.reply)
	return assistant.Run{ID: runID, Status: assistant.StatusInProgress}, nil
}

func (f *fakeService) ListRunSteps(context.Context, string, string) ([]assistant.Step, error) {
	return nil, nil
}

func newStore(t *testing.T) *config.Store {
	t.Helper()
	s, err := config.Open(filepath.Join(t.TempDir(), "gptsql.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}
