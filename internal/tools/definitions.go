// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

// Tool names the assistant is configured with.
const (
	RunSQLCommand      = "run_sql_command"
	ShowLongResults    = "show_long_query_results_on_demand"
	printAllResultsCue = "print all results"
)

// Definition describes one function tool: its name, a description for the
// model and a JSON schema for the arguments.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Definitions returns the function tools registered on the assistant.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        RunSQLCommand,
			Description: "Execute any SQL command against the SingleStore/Postgres database",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "SingleStore/Postgres syntax SQL query",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ShowLongResults,
			Description: "Only call this function if the user requests to '" + printAllResultsCue + "'",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
	}
}
