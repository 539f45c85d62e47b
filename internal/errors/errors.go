// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so call sites can react to a category (recreate a missing
// thread, ignore a stale cancel) without matching on message text.
//
// A Kind is itself an error, which lets callers write errors.Is(err, errors.NotFound)
// against any *E carrying that kind anywhere in the wrap chain.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotFound indicates the remote service does not know the requested object.
	NotFound Kind = "not_found"
	// BadRequest indicates the remote service rejected the request as invalid in its current state.
	BadRequest Kind = "bad_request"
	// ConfigCorrupt indicates the local config file could not be parsed.
	ConfigCorrupt Kind = "config_corrupt"
	// SetupFailed indicates the connection wizard could not verify the database.
	SetupFailed Kind = "setup_failed"
	// RunTimeout indicates a run did not reach a terminal state within the allowed wait.
	RunTimeout Kind = "run_timeout"
	// MissingCredential indicates a required credential is absent and cannot be prompted for.
	MissingCredential Kind = "missing_credential"
)

func (k Kind) Error() string { return string(k) }

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of this error.
func (e *E) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
