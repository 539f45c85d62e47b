// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/assistant"
)

// Renderer formats thread messages for the console.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer returns a plain-text renderer, or a markdown one wrapping at
// width when markdown is true.
func NewRenderer(markdown bool, width int) *Renderer {
	if !markdown {
		return &Renderer{}
	}
	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		log.Debug().Err(err).Msg("markdown renderer unavailable")
		return &Renderer{}
	}
	return &Renderer{md: md}
}

func (r *Renderer) Message(m assistant.Message) string {
	if r == nil || r.md == nil {
		return fmt.Sprintf("[%s] --> %s", m.Role, m.Text)
	}
	body, err := r.md.Render(m.Text)
	if err != nil {
		return fmt.Sprintf("[%s] --> %s", m.Role, m.Text)
	}
	return pterm.FgCyan.Sprintf("[%s]", m.Role) + "\n" + strings.TrimRight(body, "\n")
}
