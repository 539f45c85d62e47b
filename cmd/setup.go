// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	"gptsql/cli/internal/dsn"
	apperrors "gptsql/cli/internal/errors"
	"gptsql/cli/internal/keychain"
	"gptsql/cli/internal/logging"
	"gptsql/cli/internal/sqlexec"
	"gptsql/cli/internal/terminal"
)

const verifyTimeout = 15 * time.Second

// setupCmd re-runs the connection wizard and replaces the saved connection.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure and verify the database connection",
	Long: `The setup command asks for the database type, host, port, user, password and
database name, verifies them with SELECT version() and saves them to the config
file. The password is kept in the OS keychain when one is available.

It then asks for the OpenAI API key and the model used for new assistants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !terminal.IsInteractive() {
			return apperrors.New(apperrors.SetupFailed, "setup needs an interactive terminal")
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		sec := openSecrets()
		defaults, _ := resolveConnection(store.Record(), sec)
		_, gw, err := connectionWizard(cmd.Context(), store, sec, defaults)
		if err != nil {
			return err
		}
		gw.Close()
		if _, err := promptAPIKey(store, sec); err != nil {
			return err
		}
		if _, err := promptModel(store); err != nil {
			return err
		}
		pterm.Success.Println("Configuration saved to " + store.Path())
		return nil
	},
}

// connectionWizard asks for connection details until they verify, then
// saves them. The verified gateway is returned open.
func connectionWizard(ctx context.Context, store *config.Store, sec secrets, defaults dsn.Descriptor) (dsn.Descriptor, sqlexec.Gateway, error) {
	for {
		pterm.Info.Println("Let's setup your database connection...")
		d, err := promptConnection(defaults)
		if err != nil {
			return dsn.Descriptor{}, nil, apperrors.Wrap(apperrors.SetupFailed, "connection wizard", err)
		}

		gw, version, err := verifyConnection(ctx, d)
		if err != nil {
			logging.PresentConnectionError(d.Host, err)
			if ctx.Err() != nil {
				return dsn.Descriptor{}, nil, ctx.Err()
			}
			defaults = d
			continue
		}
		pterm.Success.Println("Connected to " + version)

		err = store.Update(func(r *config.Record) {
			r.DBType = string(d.Type)
			r.DBHost = d.Host
			r.DBPort = config.Port(d.Port)
			r.DBUser = d.User
			r.DBName = d.Database
		})
		if err == nil {
			err = sec.save(store, keychain.KeyDBPassword, d.Password, dbPasswordField)
		}
		if err != nil {
			gw.Close()
			return d, nil, fmt.Errorf("failed to save connection: %w", err)
		}
		return d, gw, nil
	}
}

func promptConnection(defaults dsn.Descriptor) (dsn.Descriptor, error) {
	typ := defaults.Type
	if typ == dsn.DBTypeUnknown || typ == "" {
		typ = dsn.DBTypePostgreSQL
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{string(dsn.DBTypePostgreSQL), string(dsn.DBTypeSingleStore)}).
		WithDefaultOption(string(typ)).
		Show("Database type")
	if err != nil {
		return dsn.Descriptor{}, err
	}
	d := dsn.Descriptor{Type: dsn.DBType(choice)}

	if d.Host, err = promptText("Host", defaults.Host); err != nil {
		return d, err
	}
	port := defaults.Port
	if port == 0 || defaults.Type != d.Type {
		port = d.Type.DefaultPort()
	}
	for {
		raw, err := promptText("Port", strconv.Itoa(port))
		if err != nil {
			return d, err
		}
		if d.Port, err = strconv.Atoi(raw); err == nil && d.Port > 0 && d.Port < 65536 {
			break
		}
		pterm.Warning.Println("Port must be a number between 1 and 65535")
	}
	if d.User, err = promptText("User", defaults.User); err != nil {
		return d, err
	}
	if d.Password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password"); err != nil {
		return d, err
	}
	if d.Database, err = promptText("Database", defaults.Database); err != nil {
		return d, err
	}
	if d.Host == "" || d.User == "" || d.Database == "" {
		pterm.Warning.Println("Host, user and database are required")
		return promptConnection(d)
	}
	return d, nil
}

func promptText(label, def string) (string, error) {
	v, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(label)
	return strings.TrimSpace(v), err
}

func verifyConnection(ctx context.Context, d dsn.Descriptor) (sqlexec.Gateway, string, error) {
	stop := startInlineSpinner(os.Stdout, "Validating connection info...", 100*time.Millisecond)
	defer stop()

	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	gw, err := sqlexec.Open(vctx, d)
	if err != nil {
		return nil, "", err
	}
	version, err := gw.Version(vctx)
	if err != nil {
		gw.Close()
		return nil, "", err
	}
	log.Info().Str("type", string(d.Type)).Str("host", d.Host).Str("version", version).Msg("connection verified")
	return gw, version, nil
}

// promptAPIKey asks for the OpenAI API key and saves it.
func promptAPIKey(store *config.Store, sec secrets) (string, error) {
	for {
		key, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("OpenAI API key")
		if err != nil {
			return "", apperrors.Wrap(apperrors.SetupFailed, "api key prompt", err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			pterm.Warning.Println("An API key is required")
			continue
		}
		if err := sec.save(store, keychain.KeyAPIKey, key, apiKeyField); err != nil {
			return "", err
		}
		return key, nil
	}
}

// promptModel asks for the model used by newly created assistants and saves it.
func promptModel(store *config.Store) (string, error) {
	def := store.Record().Model
	if def == "" {
		def = assistant.Models[0]
	}
	model, err := pterm.DefaultInteractiveSelect.
		WithOptions(assistant.Models).
		WithDefaultOption(def).
		Show("Model")
	if err != nil {
		return "", apperrors.Wrap(apperrors.SetupFailed, "model prompt", err)
	}
	if err := store.Update(func(r *config.Record) { r.Model = model }); err != nil {
		return "", err
	}
	return model, nil
}

// errNoTerminal is returned when a credential is missing and cannot be asked for.
func errNoTerminal(what string) error {
	return apperrors.New(apperrors.MissingCredential,
		fmt.Sprintf("%s is not configured and there is no terminal to ask for it; run 'gptsql setup' or set it in the environment", what))
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
