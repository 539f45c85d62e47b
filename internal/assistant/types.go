// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package assistant is gptsql's view of the hosted assistant service:
// assistants, threads, messages, runs and run steps. Service hides the SDK so
// the run driver and the session can be tested against fakes.
package assistant

import (
	"context"
	"time"

	"gptsql/cli/internal/tools"
)

// Name is the display name of the assistant gptsql creates.
const Name = "GPTSQL"

// Instructions are given to the assistant at creation.
const Instructions = `You are an assistant helping with data analysis and to query a postgres/singlestoredb database.`

// Models offered by the setup wizard, default first.
var Models = []string{"gpt-4o", "gpt-4o-mini", "gpt-4-1106-preview", "gpt-3.5-turbo-1106"}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusQueued         RunStatus = "queued"
	StatusInProgress     RunStatus = "in_progress"
	StatusRequiresAction RunStatus = "requires_action"
	StatusCancelling     RunStatus = "cancelling"
	StatusCompleted      RunStatus = "completed"
	StatusExpired        RunStatus = "expired"
	StatusCancelled      RunStatus = "cancelled"
	StatusFailed         RunStatus = "failed"
	StatusIncomplete     RunStatus = "incomplete"
)

// Terminal reports whether no further transitions happen from s.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled, StatusFailed, StatusIncomplete:
		return true
	}
	return false
}

// ActionSubmitToolOutputs is the only required action gptsql can satisfy.
const ActionSubmitToolOutputs = "submit_tool_outputs"

// Tool call types found in run steps.
const (
	ToolTypeFunction        = "function"
	ToolTypeCodeInterpreter = "code_interpreter"
)

// ToolCall is one tool invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Type      string
	Name      string
	Arguments string
}

// RequiredAction is what a run in requires_action waits for.
type RequiredAction struct {
	Type      string
	ToolCalls []ToolCall
}

type Run struct {
	ID             string
	Status         RunStatus
	RequiredAction *RequiredAction
	// LastError is the service's explanation for failed runs.
	LastError string
}

// Step is one unit of run progress.
type Step struct {
	ID        string
	Type      string
	ToolCalls []ToolCall
}

// Message is one thread message, flattened to its text parts.
type Message struct {
	ID        string
	Role      string
	Text      string
	CreatedAt time.Time
}

type ToolOutput struct {
	ToolCallID string
	Output     string
}

type Assistant struct {
	ID    string
	Name  string
	Model string
}

type Thread struct {
	ID string
}

// AssistantSpec describes an assistant to create.
type AssistantSpec struct {
	Name            string
	Instructions    string
	Model           string
	CodeInterpreter bool
	Functions       []tools.Definition
}

// DefaultSpec is the GPTSQL assistant for model.
func DefaultSpec(model string) AssistantSpec {
	return AssistantSpec{
		Name:            Name,
		Instructions:    Instructions,
		Model:           model,
		CodeInterpreter: true,
		Functions:       tools.Definitions(),
	}
}

// Service is the subset of the assistants API gptsql uses. Implementations
// report unknown objects as errors.NotFound and rejected requests as
// errors.BadRequest.
type Service interface {
	RetrieveAssistant(ctx context.Context, id string) (Assistant, error)
	CreateAssistant(ctx context.Context, spec AssistantSpec) (Assistant, error)

	RetrieveThread(ctx context.Context, id string) (Thread, error)
	CreateThread(ctx context.Context) (Thread, error)

	CreateMessage(ctx context.Context, threadID, content string) error
	// ListMessages returns every message of the thread, oldest first.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)

	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)
	// ListRunSteps returns the steps of a run, oldest first.
	ListRunSteps(ctx context.Context, threadID, runID string) ([]Step, error)
}
