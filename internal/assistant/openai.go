// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	apperrors "gptsql/cli/internal/errors"
)

const pageSize = 100

// OpenAI implements Service on the OpenAI Assistants API.
type OpenAI struct {
	api *openai.Client
}

// NewOpenAI creates a client for apiKey. baseURL may be empty for the public API.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	return &OpenAI{api: openai.NewClientWithConfig(cfg)}
}

// mapErr tags 404 and 400 responses with their kind and keeps the SDK error
// in the chain for presentation.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	switch code {
	case http.StatusNotFound:
		return apperrors.Wrap(apperrors.NotFound, op, err)
	case http.StatusBadRequest:
		return apperrors.Wrap(apperrors.BadRequest, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *OpenAI) RetrieveAssistant(ctx context.Context, id string) (Assistant, error) {
	a, err := c.api.RetrieveAssistant(ctx, id)
	if err != nil {
		return Assistant{}, mapErr("retrieve assistant", err)
	}
	return fromAssistant(a), nil
}

func (c *OpenAI) CreateAssistant(ctx context.Context, spec AssistantSpec) (Assistant, error) {
	req := openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &spec.Name,
		Instructions: &spec.Instructions,
	}
	if spec.CodeInterpreter {
		req.Tools = append(req.Tools, openai.AssistantTool{Type: openai.AssistantToolTypeCodeInterpreter})
	}
	for _, fn := range spec.Functions {
		req.Tools = append(req.Tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			},
		})
	}
	a, err := c.api.CreateAssistant(ctx, req)
	if err != nil {
		return Assistant{}, mapErr("create assistant", err)
	}
	return fromAssistant(a), nil
}

func fromAssistant(a openai.Assistant) Assistant {
	out := Assistant{ID: a.ID, Model: a.Model}
	if a.Name != nil {
		out.Name = *a.Name
	}
	return out
}

func (c *OpenAI) RetrieveThread(ctx context.Context, id string) (Thread, error) {
	t, err := c.api.RetrieveThread(ctx, id)
	if err != nil {
		return Thread{}, mapErr("retrieve thread", err)
	}
	return Thread{ID: t.ID}, nil
}

func (c *OpenAI) CreateThread(ctx context.Context) (Thread, error) {
	t, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return Thread{}, mapErr("create thread", err)
	}
	return Thread{ID: t.ID}, nil
}

func (c *OpenAI) CreateMessage(ctx context.Context, threadID, content string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: content,
	})
	return mapErr("create message", err)
}

func (c *OpenAI) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	limit, order := pageSize, "asc"
	var (
		out   []Message
		after *string
	)
	for {
		page, err := c.api.ListMessage(ctx, threadID, &limit, &order, after, nil, nil)
		if err != nil {
			return nil, mapErr("list messages", err)
		}
		for _, m := range page.Messages {
			out = append(out, fromMessage(m))
		}
		if !page.HasMore || page.LastID == nil || len(page.Messages) == 0 {
			return out, nil
		}
		after = page.LastID
	}
}

func fromMessage(m openai.Message) Message {
	var parts []string
	for _, c := range m.Content {
		if c.Text != nil {
			parts = append(parts, c.Text.Value)
		} else {
			parts = append(parts, "["+c.Type+"]")
		}
	}
	return Message{
		ID:        m.ID,
		Role:      m.Role,
		Text:      strings.Join(parts, "\n"),
		CreatedAt: time.Unix(int64(m.CreatedAt), 0),
	}
}

func (c *OpenAI) CreateRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	r, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return Run{}, mapErr("create run", err)
	}
	return fromRun(r), nil
}

func (c *OpenAI) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	r, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, mapErr("retrieve run", err)
	}
	return fromRun(r), nil
}

func (c *OpenAI) CancelRun(ctx context.Context, threadID, runID string) error {
	_, err := c.api.CancelRun(ctx, threadID, runID)
	return mapErr("cancel run", err)
}

func (c *OpenAI) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	req := openai.SubmitToolOutputsRequest{ToolOutputs: make([]openai.ToolOutput, 0, len(outputs))}
	for _, o := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{ToolCallID: o.ToolCallID, Output: o.Output})
	}
	r, err := c.api.SubmitToolOutputs(ctx, threadID, runID, req)
	if err != nil {
		return Run{}, mapErr("submit tool outputs", err)
	}
	return fromRun(r), nil
}

func fromRun(r openai.Run) Run {
	out := Run{ID: r.ID, Status: RunStatus(r.Status)}
	if r.LastError != nil {
		out.LastError = r.LastError.Message
	}
	if ra := r.RequiredAction; ra != nil {
		out.RequiredAction = &RequiredAction{Type: string(ra.Type)}
		if ra.SubmitToolOutputs != nil {
			out.RequiredAction.ToolCalls = fromToolCalls(ra.SubmitToolOutputs.ToolCalls)
		}
	}
	return out
}

func fromToolCalls(calls []openai.ToolCall) []ToolCall {
	out := make([]ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, ToolCall{
			ID:        tc.ID,
			Type:      string(tc.Type),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func (c *OpenAI) ListRunSteps(ctx context.Context, threadID, runID string) ([]Step, error) {
	limit, order := pageSize, "asc"
	var out []Step
	p := openai.Pagination{Limit: &limit, Order: &order}
	for {
		page, err := c.api.ListRunSteps(ctx, threadID, runID, p)
		if err != nil {
			return nil, mapErr("list run steps", err)
		}
		for _, s := range page.RunSteps {
			out = append(out, Step{
				ID:        s.ID,
				Type:      string(s.StepDetails.Type),
				ToolCalls: fromToolCalls(s.StepDetails.ToolCalls),
			})
		}
		if !page.HasMore || page.LastID == "" || len(page.RunSteps) == 0 {
			return out, nil
		}
		last := page.LastID
		p.After = &last
	}
}
