// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"errors"

	"github.com/chzyer/readline"
)

// ErrInterrupted is returned by a LineReader when the user presses Ctrl-C at the prompt.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of user input after showing prompt. It returns
// io.EOF at end of input and ErrInterrupted on Ctrl-C.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// Console is a LineReader with line editing and a history file.
type Console struct {
	rl *readline.Instance
}

// NewConsole opens a console that persists entered lines to historyFile.
func NewConsole(historyFile string) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Console{rl: rl}, nil
}

func (c *Console) Prompt(prompt string) (string, error) {
	c.rl.SetPrompt(prompt)
	line, err := c.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (c *Console) Close() error { return c.rl.Close() }
