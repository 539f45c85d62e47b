// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package run

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	apperrors "gptsql/cli/internal/errors"
)

// fakeService replays a scripted sequence of run states.
type fakeService struct {
	assistant.Service

	mu        sync.Mutex
	runs      []assistant.Run
	polls     int
	steps     []assistant.Step
	messages  []string
	submitted [][]assistant.ToolOutput
	cancelled []string
	cancelErr error

	submitErr   error
	retrieveErr error
}

func (f *fakeService) CreateMessage(_ context.Context, _, content string) error {
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeService) CreateRun(context.Context, string, string) (assistant.Run, error) {
	return f.next(), nil
}

func (f *fakeService) RetrieveRun(context.Context, string, string) (assistant.Run, error) {
	if f.retrieveErr != nil {
		return assistant.Run{}, f.retrieveErr
	}
	return f.next(), nil
}

func (f *fakeService) next() assistant.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	if i >= len(f.runs) {
		i = len(f.runs) - 1
	}
	f.polls++
	return f.runs[i]
}

func (f *fakeService) SubmitToolOutputs(_ context.Context, _, runID string, outputs []assistant.ToolOutput) (assistant.Run, error) {
	f.submitted = append(f.submitted, outputs)
	if f.submitErr != nil {
		return assistant.Run{}, f.submitErr
	}
	return assistant.Run{ID: runID, Status: assistant.StatusQueued}, nil
}

func (f *fakeService) ListRunSteps(context.Context, string, string) ([]assistant.Step, error) {
	return f.steps, nil
}

func (f *fakeService) CancelRun(_ context.Context, _, runID string) error {
	f.cancelled = append(f.cancelled, runID)
	return f.cancelErr
}

type echoTools struct{ calls []string }

func (e *echoTools) Dispatch(_ context.Context, scope, name, args string) string {
	e.calls = append(e.calls, name)
	return scope + ":" + name + ":" + args
}

type recordingProgress struct{ steps, statuses []string }

func (p *recordingProgress) Status(s string) { p.statuses = append(p.statuses, s) }
func (p *recordingProgress) Step(s string)   { p.steps = append(p.steps, s) }

func newStore(t *testing.T) *config.Store {
	t.Helper()
	s, err := config.Open(filepath.Join(t.TempDir(), "gptsql.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestDriver(t *testing.T, svc *fakeService, tools Dispatcher, p Progress) (*Driver, *config.Store) {
	t.Helper()
	store := newStore(t)
	d := NewDriver(svc, tools, store, p)
	d.Interval = time.Millisecond
	d.MaxWait = 5 * time.Second
	return d, store
}

func TestDriveReturnsOnTerminalStates(t *testing.T) {
	tests := []struct {
		name   string
		status assistant.RunStatus
	}{
		{name: "completed", status: assistant.StatusCompleted},
		{name: "failed", status: assistant.StatusFailed},
		{name: "expired", status: assistant.StatusExpired},
		{name: "cancelled", status: assistant.StatusCancelled},
		{name: "incomplete", status: assistant.StatusIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{runs: []assistant.Run{
				{ID: "run_1", Status: assistant.StatusQueued},
				{ID: "run_1", Status: assistant.StatusInProgress},
				{ID: "run_1", Status: tt.status, LastError: "detail"},
			}}
			d, store := newTestDriver(t, svc, &echoTools{}, nil)

			out, err := d.Drive(context.Background(), "thread_1", "asst_1", "hello")
			if err != nil {
				t.Fatalf("Drive() error = %v", err)
			}
			if out.Status != tt.status || out.LastError != "detail" || out.RunID != "run_1" {
				t.Errorf("Outcome = %+v", out)
			}
			if out.Succeeded() != (tt.status == assistant.StatusCompleted) {
				t.Errorf("Succeeded() = %v", out.Succeeded())
			}
			if got := store.Record().LastRunID; got != "run_1" {
				t.Errorf("LastRunID = %q, want run_1", got)
			}
			if len(svc.messages) != 1 || svc.messages[0] != "hello" {
				t.Errorf("messages = %v", svc.messages)
			}
		})
	}
}

func TestDriveSubmitsToolOutputsInOneBatch(t *testing.T) {
	svc := &fakeService{runs: []assistant.Run{
		{ID: "run_1", Status: assistant.StatusRequiresAction, RequiredAction: &assistant.RequiredAction{
			Type: assistant.ActionSubmitToolOutputs,
			ToolCalls: []assistant.ToolCall{
				{ID: "call_1", Type: "function", Name: "run_sql_command", Arguments: `{"query":"SELECT 1"}`},
				{ID: "call_2", Type: "function", Name: "show_long_query_results_on_demand", Arguments: `{}`},
			},
		}},
		{ID: "run_1", Status: assistant.StatusCompleted},
	}}
	tools := &echoTools{}
	p := &recordingProgress{}
	d, _ := newTestDriver(t, svc, tools, p)

	out, err := d.Drive(context.Background(), "thread_1", "asst_1", "q")
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if out.Status != assistant.StatusCompleted {
		t.Errorf("Status = %s", out.Status)
	}
	if len(svc.submitted) != 1 {
		t.Fatalf("submissions = %d, want 1", len(svc.submitted))
	}
	batch := svc.submitted[0]
	if len(batch) != 2 || batch[0].ToolCallID != "call_1" || batch[1].ToolCallID != "call_2" {
		t.Fatalf("batch = %+v", batch)
	}
	if batch[0].Output != `thread_1:run_sql_command:{"query":"SELECT 1"}` {
		t.Errorf("output[0] = %q", batch[0].Output)
	}
	if len(p.steps) != 2 || p.steps[0] != "--> run_sql_command()" {
		t.Errorf("steps = %v", p.steps)
	}
	if p.statuses[len(p.statuses)-1] != "considering results..." {
		t.Errorf("statuses = %v", p.statuses)
	}
}

func TestDriveReportsUnknownActionOnce(t *testing.T) {
	waiting := assistant.Run{ID: "run_1", Status: assistant.StatusRequiresAction,
		RequiredAction: &assistant.RequiredAction{Type: "approve_something"}}
	svc := &fakeService{runs: []assistant.Run{waiting, waiting, waiting,
		{ID: "run_1", Status: assistant.StatusCompleted}}}
	tools := &echoTools{}
	p := &recordingProgress{}
	d, _ := newTestDriver(t, svc, tools, p)

	if _, err := d.Drive(context.Background(), "thread_1", "asst_1", "q"); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(tools.calls) != 0 || len(svc.submitted) != 0 {
		t.Errorf("unknown action should not dispatch or submit")
	}
	if len(p.steps) != 1 || !strings.Contains(p.steps[0], "approve_something") {
		t.Errorf("steps = %v", p.steps)
	}
}

func TestDriveReportsNewCodeSteps(t *testing.T) {
	svc := &fakeService{
		runs: []assistant.Run{
			{ID: "run_1", Status: assistant.StatusInProgress},
			{ID: "run_1", Status: assistant.StatusInProgress},
			{ID: "run_1", Status: assistant.StatusCompleted},
		},
		steps: []assistant.Step{
			{ID: "step_1", Type: "message_creation"},
			{ID: "step_2", Type: "tool_calls", ToolCalls: []assistant.ToolCall{{ID: "c", Type: assistant.ToolTypeCodeInterpreter}}},
		},
	}
	p := &recordingProgress{}
	d, _ := newTestDriver(t, svc, &echoTools{}, p)

	if _, err := d.Drive(context.Background(), "thread_1", "asst_1", "q"); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(p.steps) != 1 || !strings.HasPrefix(p.steps[0], "[code]") {
		t.Errorf("steps = %v, want one code step reported once", p.steps)
	}
}

func TestDriveSettlesRejectedRequests(t *testing.T) {
	pending := assistant.Run{ID: "run_1", Status: assistant.StatusRequiresAction, RequiredAction: &assistant.RequiredAction{
		Type:      assistant.ActionSubmitToolOutputs,
		ToolCalls: []assistant.ToolCall{{ID: "call_1", Type: "function", Name: "run_sql_command", Arguments: `{"query":"SELECT pg_sleep(900)"}`}},
	}}
	expiredSubmit := apperrors.Wrap(apperrors.BadRequest, "submit tool outputs",
		errors.New(`Runs in status "expired" do not accept tool outputs.`))
	gone := apperrors.Wrap(apperrors.NotFound, "retrieve run", errors.New("404"))

	tests := []struct {
		name        string
		runs        []assistant.Run
		submitErr   error
		retrieveErr error
		wantStatus  assistant.RunStatus
		wantErr     bool
	}{
		{
			name:       "submit rejected after expiry",
			runs:       []assistant.Run{pending, {ID: "run_1", Status: assistant.StatusExpired}},
			submitErr:  expiredSubmit,
			wantStatus: assistant.StatusExpired,
		},
		{
			name:       "submit rejected after cancel",
			runs:       []assistant.Run{pending, {ID: "run_1", Status: assistant.StatusCancelled, LastError: "cancelled by user"}},
			submitErr:  expiredSubmit,
			wantStatus: assistant.StatusCancelled,
		},
		{
			name:        "run no longer exists",
			runs:        []assistant.Run{{ID: "run_1", Status: assistant.StatusQueued}},
			retrieveErr: gone,
			wantStatus:  assistant.StatusExpired,
		},
		{
			name:        "other errors propagate",
			runs:        []assistant.Run{{ID: "run_1", Status: assistant.StatusQueued}},
			retrieveErr: errors.New("connection reset"),
			wantErr:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{runs: tt.runs, submitErr: tt.submitErr, retrieveErr: tt.retrieveErr}
			d, _ := newTestDriver(t, svc, &echoTools{}, nil)

			out, err := d.Drive(context.Background(), "thread_1", "asst_1", "q")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Drive() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Drive() error = %v", err)
			}
			if out.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", out.Status, tt.wantStatus)
			}
			if out.LastError == "" {
				t.Errorf("LastError is empty")
			}
			if out.Succeeded() {
				t.Errorf("Succeeded() = true")
			}
		})
	}
}

func TestDriveTimesOut(t *testing.T) {
	svc := &fakeService{runs: []assistant.Run{{ID: "run_1", Status: assistant.StatusQueued}}}
	d, _ := newTestDriver(t, svc, &echoTools{}, nil)
	d.MaxWait = 20 * time.Millisecond

	_, err := d.Drive(context.Background(), "thread_1", "asst_1", "q")
	if !errors.Is(err, apperrors.RunTimeout) {
		t.Fatalf("Drive() error = %v, want run_timeout", err)
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != "run_1" {
		t.Errorf("cancelled = %v", svc.cancelled)
	}
}

func TestDriveWithoutMaxWait(t *testing.T) {
	svc := &fakeService{runs: []assistant.Run{
		{ID: "run_1", Status: assistant.StatusQueued},
		{ID: "run_1", Status: assistant.StatusInProgress},
		{ID: "run_1", Status: assistant.StatusCompleted},
	}}
	d, _ := newTestDriver(t, svc, &echoTools{}, nil)
	d.MaxWait = 0

	out, err := d.Drive(context.Background(), "thread_1", "asst_1", "q")
	if err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if !out.Succeeded() || len(svc.cancelled) != 0 {
		t.Errorf("Outcome = %+v, cancelled = %v", out, svc.cancelled)
	}
}

func TestDriveStopsOnContextCancel(t *testing.T) {
	svc := &fakeService{runs: []assistant.Run{{ID: "run_1", Status: assistant.StatusInProgress}}}
	d, _ := newTestDriver(t, svc, &echoTools{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Drive(ctx, "thread_1", "asst_1", "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(svc.cancelled) != 0 {
		t.Errorf("remote run cancelled on local interruption: %v", svc.cancelled)
	}
}

func TestCancelStale(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "cancelled", err: nil},
		{name: "not found ignored", err: apperrors.Wrap(apperrors.NotFound, "cancel run", errors.New("404"))},
		{name: "bad request ignored", err: apperrors.Wrap(apperrors.BadRequest, "cancel run", errors.New("400"))},
		{name: "other errors propagate", err: errors.New("connection reset"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{cancelErr: tt.err}
			d, store := newTestDriver(t, svc, &echoTools{}, nil)
			if err := store.Update(func(r *config.Record) { r.LastRunID = "run_old" }); err != nil {
				t.Fatal(err)
			}

			err := d.CancelStale(context.Background(), "thread_1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CancelStale() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(svc.cancelled) != 1 || svc.cancelled[0] != "run_old" {
				t.Errorf("cancelled = %v", svc.cancelled)
			}
			if !tt.wantErr && store.Record().LastRunID != "" {
				t.Errorf("LastRunID not cleared")
			}
		})
	}
}

func TestCancelStaleWithoutRun(t *testing.T) {
	svc := &fakeService{}
	d, _ := newTestDriver(t, svc, &echoTools{}, nil)
	if err := d.CancelStale(context.Background(), "thread_1"); err != nil {
		t.Fatal(err)
	}
	if len(svc.cancelled) != 0 {
		t.Errorf("cancelled = %v", svc.cancelled)
	}
}
