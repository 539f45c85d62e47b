// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"time"

	"gptsql/cli/internal/assistant"
)

// NewMessages returns the non-user messages created strictly after
// watermark, in the order given.
func NewMessages(msgs []assistant.Message, watermark time.Time) []assistant.Message {
	var out []assistant.Message
	for _, m := range msgs {
		if m.Role == "user" {
			continue
		}
		if m.CreatedAt.After(watermark) {
			out = append(out, m)
		}
	}
	return out
}
