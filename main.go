// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for gptsql, a chat interface to
// PostgreSQL and SingleStore databases backed by the OpenAI Assistants API.
package main

import (
	"gptsql/cli/cmd"
)

func main() {
	cmd.Execute()
}
