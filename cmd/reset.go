// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"gptsql/cli/internal/logging"
)

// resetCmd removes the saved configuration and keychain secrets.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the saved configuration and secrets",
	Long: `The reset command deletes the config file and the secrets gptsql stored in the OS
keychain. The next start runs the setup wizard again and creates a new assistant
and thread.

This command removes:
- The database connection and OpenAI API key
- The saved assistant and thread ids
- The message watermark`,

	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		// Keychain first so a failure there still leaves the file to retry with.
		if err := openSecrets().clear(); err != nil {
			logging.Warn("could not clear keychain secrets", err)
		}
		if err := store.Clear(); err != nil {
			return err
		}
		pterm.Success.Println("Saved configuration and secrets have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
