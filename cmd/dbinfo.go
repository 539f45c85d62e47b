// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"gptsql/cli/internal/logging"
)

// dbinfoCmd shows the connection gptsql would use, password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the current database connection",
	Long: `The dbinfo command displays the database connection gptsql would use, resolved from
the saved config, the flags and the environment, with the password masked. It also
shows the assistant and thread the next session will continue.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		rec := store.Record()
		desc, err := resolveConnection(rec, openSecrets())
		if err != nil {
			return err
		}
		if desc.Host == "" {
			pterm.Warning.Println("No database connection configured")
			pterm.Println("   Please run: gptsql setup")
			return nil
		}

		pterm.Println("Using connection from " + connectionSource(rec))
		pterm.Println()
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(string(desc.Type) + " Connection")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(logging.Mask(desc.URL()))
		pterm.Println()

		rows := pterm.TableData{{"Config", store.Path()}}
		if rec.Model != "" {
			rows = append(rows, []string{"Model", rec.Model})
		}
		if rec.AssistantID != "" {
			rows = append(rows, []string{"Assistant", rec.AssistantID})
		}
		if rec.ThreadID != "" {
			rows = append(rows, []string{"Thread", rec.ThreadID})
		}
		if err := pterm.DefaultTable.WithData(rows).Render(); err != nil {
			return err
		}
		pterm.Println()
		pterm.Println("To update this connection, run: gptsql setup")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
