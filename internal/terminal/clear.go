// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides helpers for terminal detection and cleanup.
package terminal

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are attached to a terminal.
// Prompts and markdown rendering are only used when it returns true.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width of stdout, or 80 when it cannot be determined.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// ClearPreviousLines clears text from the terminal that was previously printed.
// textLength is the number of characters of prompt plus user input; the line
// count is derived from the current terminal width, plus the empty line the
// cursor moved to when Enter was pressed.
func ClearPreviousLines(textLength int) {
	totalLines := int(math.Ceil(float64(textLength) / float64(Width())))
	if totalLines < 1 {
		totalLines = 1
	}
	linesToClear := totalLines + 1

	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A")
		}
	}
}
