// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package run drives one assistant run from creation to a terminal state,
// executing the tool calls the assistant asks for along the way.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	apperrors "gptsql/cli/internal/errors"
)

const (
	DefaultInterval = time.Second
	DefaultMaxWait  = 10 * time.Minute

	cancelTimeout = 10 * time.Second
)

// Dispatcher executes one tool call and returns its output.
type Dispatcher interface {
	Dispatch(ctx context.Context, scope, name, arguments string) string
}

// Store is the part of config.Store the driver needs.
type Store interface {
	Record() config.Record
	Update(fn func(*config.Record)) error
}

// Progress receives human-readable progress while a run is polled.
type Progress interface {
	// Status replaces the current activity text.
	Status(text string)
	// Step reports one tool invocation or code execution.
	Step(text string)
}

// Outcome is how a run ended.
type Outcome struct {
	RunID     string
	Status    assistant.RunStatus
	LastError string
}

// Succeeded reports whether the run completed normally.
func (o Outcome) Succeeded() bool { return o.Status == assistant.StatusCompleted }

// Driver polls runs on a fixed interval.
type Driver struct {
	svc      assistant.Service
	tools    Dispatcher
	store    Store
	progress Progress

	Interval time.Duration
	MaxWait  time.Duration
}

func NewDriver(svc assistant.Service, tools Dispatcher, store Store, progress Progress) *Driver {
	if progress == nil {
		progress = nopProgress{}
	}
	return &Driver{
		svc:      svc,
		tools:    tools,
		store:    store,
		progress: progress,
		Interval: DefaultInterval,
		MaxWait:  DefaultMaxWait,
	}
}

// Drive posts content to the thread, starts a run of assistantID and polls it
// until it reaches a terminal state. A terminal state, failed included, is
// reported through Outcome with a nil error, as is a run that ends while its
// tool outputs are being prepared. When MaxWait elapses the run is
// cancelled best-effort and a run_timeout error is returned. Cancelling ctx
// stops polling and leaves the remote run alone.
func (d *Driver) Drive(ctx context.Context, threadID, assistantID, content string) (Outcome, error) {
	if err := d.svc.CreateMessage(ctx, threadID, content); err != nil {
		return Outcome{}, err
	}
	r, err := d.svc.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return Outcome{}, err
	}
	if err := d.store.Update(func(rec *config.Record) { rec.LastRunID = r.ID }); err != nil {
		return Outcome{}, fmt.Errorf("failed to save run id: %w", err)
	}
	log.Debug().Str("thread", threadID).Str("run", r.ID).Msg("run created")
	return d.poll(ctx, threadID, r)
}

func (d *Driver) poll(ctx context.Context, threadID string, r assistant.Run) (Outcome, error) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	// A non-positive MaxWait leaves the wait unbounded.
	var deadline <-chan time.Time
	if d.MaxWait > 0 {
		timer := time.NewTimer(d.MaxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	stepsSeen := 0
	reportedAction := ""
	d.progress.Status("thinking...")

	for {
		log.Debug().Str("run", r.ID).Str("status", string(r.Status)).Msg("run status")
		switch r.Status {
		case assistant.StatusQueued, assistant.StatusCancelling:
		case assistant.StatusInProgress:
			d.reportSteps(ctx, threadID, r.ID, &stepsSeen)
		case assistant.StatusRequiresAction:
			ra := r.RequiredAction
			if ra == nil || ra.Type != assistant.ActionSubmitToolOutputs {
				kind := "<none>"
				if ra != nil {
					kind = ra.Type
				}
				if reportedAction != kind {
					reportedAction = kind
					d.progress.Step(fmt.Sprintf("unhandled required action %q", kind))
					log.Warn().Str("run", r.ID).Str("action", kind).Msg("unhandled required action")
				}
				break
			}
			next, err := d.submit(ctx, threadID, r.ID, ra.ToolCalls)
			if err != nil {
				return d.settle(ctx, threadID, r, err)
			}
			r = next
			d.progress.Status("considering results...")
			if r.Status.Terminal() {
				continue
			}
		case assistant.StatusCompleted, assistant.StatusExpired, assistant.StatusCancelled,
			assistant.StatusFailed, assistant.StatusIncomplete:
			return Outcome{RunID: r.ID, Status: r.Status, LastError: r.LastError}, nil
		default:
			log.Warn().Str("run", r.ID).Str("status", string(r.Status)).Msg("unknown run status")
		}

		select {
		case <-ctx.Done():
			return Outcome{RunID: r.ID, Status: r.Status}, ctx.Err()
		case <-deadline:
			d.cancel(ctx, threadID, r.ID)
			return Outcome{RunID: r.ID, Status: r.Status}, apperrors.New(apperrors.RunTimeout,
				fmt.Sprintf("run %s did not finish within %s", r.ID, d.MaxWait))
		case <-ticker.C:
		}

		next, err := d.svc.RetrieveRun(ctx, threadID, r.ID)
		if err != nil {
			return d.settle(ctx, threadID, r, err)
		}
		r = next
	}
}

// settle turns a not-found or bad-request answer about the current run into
// an Outcome, fetching the run once more for its final status. A run that is
// gone reports as expired. Other errors are returned unchanged.
func (d *Driver) settle(ctx context.Context, threadID string, r assistant.Run, cause error) (Outcome, error) {
	if !errors.Is(cause, apperrors.NotFound) && !errors.Is(cause, apperrors.BadRequest) {
		return Outcome{RunID: r.ID, Status: r.Status}, cause
	}
	log.Warn().Err(cause).Str("run", r.ID).Msg("service rejected a request for the run")
	out := Outcome{RunID: r.ID, Status: r.Status, LastError: cause.Error()}
	final, err := d.svc.RetrieveRun(ctx, threadID, r.ID)
	switch {
	case err != nil:
		log.Debug().Err(err).Str("run", r.ID).Msg("retrieve after rejection failed")
		if errors.Is(err, apperrors.NotFound) {
			out.Status = assistant.StatusExpired
		}
	case final.Status.Terminal():
		out.Status = final.Status
		if final.LastError != "" {
			out.LastError = final.LastError
		}
	}
	return out, nil
}

// submit dispatches every pending call and sends all outputs in one request.
func (d *Driver) submit(ctx context.Context, threadID, runID string, calls []assistant.ToolCall) (assistant.Run, error) {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		d.progress.Step(fmt.Sprintf("--> %s()", call.Name))
		out := d.tools.Dispatch(ctx, threadID, call.Name, call.Arguments)
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: call.ID, Output: out})
	}
	return d.svc.SubmitToolOutputs(ctx, threadID, runID, outputs)
}

// reportSteps reports code-execution steps created since the last poll.
// Function calls are reported when they are dispatched.
func (d *Driver) reportSteps(ctx context.Context, threadID, runID string, seen *int) {
	steps, err := d.svc.ListRunSteps(ctx, threadID, runID)
	if err != nil {
		log.Debug().Err(err).Str("run", runID).Msg("list run steps failed")
		return
	}
	for i := *seen; i < len(steps); i++ {
		for _, call := range steps[i].ToolCalls {
			if call.Type == assistant.ToolTypeCodeInterpreter {
				d.progress.Step("[code] running python")
			}
		}
	}
	if len(steps) > *seen {
		*seen = len(steps)
	}
}

func (d *Driver) cancel(ctx context.Context, threadID, runID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if err := d.svc.CancelRun(cctx, threadID, runID); err != nil {
		log.Warn().Err(err).Str("run", runID).Msg("cancel after timeout failed")
	}
}

// CancelStale cancels the run recorded by a previous process, if any. Runs
// the service no longer knows or can no longer cancel are ignored.
func (d *Driver) CancelStale(ctx context.Context, threadID string) error {
	runID := d.store.Record().LastRunID
	if runID == "" || threadID == "" {
		return nil
	}
	err := d.svc.CancelRun(ctx, threadID, runID)
	switch {
	case err == nil:
		log.Debug().Str("run", runID).Msg("cancelled stale run")
	case errors.Is(err, apperrors.NotFound), errors.Is(err, apperrors.BadRequest):
		log.Debug().Err(err).Str("run", runID).Msg("stale run not cancellable")
	default:
		return err
	}
	return d.store.Update(func(rec *config.Record) { rec.LastRunID = "" })
}

type nopProgress struct{}

func (nopProgress) Status(string) {}
func (nopProgress) Step(string)   {}
