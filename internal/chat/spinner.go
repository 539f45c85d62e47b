// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"fmt"
	"io"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"gptsql/cli/internal/run"
)

// Indicator shows progress while a turn is running.
type Indicator interface {
	run.Progress
	Start(text string)
	Stop()
}

// Spinner animates a pterm spinner on a terminal. Without a terminal it
// writes step lines to w and nothing else.
type Spinner struct {
	mu          sync.Mutex
	interactive bool
	w           io.Writer
	sp          *pterm.SpinnerPrinter
}

func NewSpinner(interactive bool, w io.Writer) *Spinner {
	return &Spinner{interactive: interactive, w: w}
}

func (s *Spinner) Start(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.interactive || s.sp != nil {
		return
	}
	cursor.Hide()
	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		cursor.Show()
		return
	}
	s.sp = sp
}

func (s *Spinner) Status(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sp != nil {
		s.sp.UpdateText(text)
	}
}

func (s *Spinner) Step(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sp != nil {
		pterm.Println(pterm.FgGray.Sprint("  " + text))
		return
	}
	fmt.Fprintln(s.w, "  "+text)
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sp == nil {
		return
	}
	_ = s.sp.Stop()
	s.sp = nil
	cursor.Show()
}
