// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for gptsql.
// The root command opens the chat session; subcommands manage the saved
// connection. Commands are built with Cobra and print through pterm.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gptsql/cli/internal/config"
	"gptsql/cli/internal/logging"
	"gptsql/cli/internal/run"
	"gptsql/cli/internal/xdg"
)

// rootFlags are the flags shared by the root command and its subcommands.
type rootFlags struct {
	dbType     string
	host       string
	port       int
	user       string
	dbName     string
	password   string
	dsn        string
	model      string
	configPath string
	runTimeout time.Duration
	verbose    bool
	version    bool
}

var (
	flags rootFlags

	env       config.Env
	logCloser io.Closer = io.NopCloser(nil)
)

// rootCmd starts the interactive chat when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "gptsql",
	Short: "Chat with your PostgreSQL or SingleStore database",
	Long: `gptsql is a chat interface to a PostgreSQL or SingleStore database. Questions are
answered by an OpenAI assistant that runs SQL against your database through gptsql.

The connection comes from the saved config (~/.gptsql), the flags below or the
DBTYPE, DBHOST, DBPORT, DBUSER, DBPASSWORD, DBNAME and DATABASE_URL environment
variables. Without any of them a setup wizard asks for the connection details.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logCloser.Close() },
	RunE: func(cmd *cobra.Command, args []string) error {
		if flags.version {
			fmt.Printf("gptsql %s\n", Version)
			return nil
		}
		return runChat(cmd.Context())
	},
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var r reported
		if !errors.As(err, &r) {
			logging.Fail(rootCmd.Name(), err)
		}
		stop()
		os.Exit(1)
	}
}

// reported marks an error the user has already been shown.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// setup runs before every command: it reads the environment and starts the
// diagnostics log in the state directory.
func setup(cmd *cobra.Command, _ []string) error {
	if err := validateFlags(flags); err != nil {
		return err
	}
	var err error
	env, err = config.LoadEnv()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	opts := logging.Options{Verbose: flags.verbose || env.Verbose}
	if p, err := xdg.StatePath("gptsql.log"); err == nil {
		opts.File = p
	}
	logCloser, err = logging.Init(opts)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	log.Debug().Str("command", cmd.Name()).Str("version", Version).Msg("start")
	return nil
}

func validateFlags(f rootFlags) error {
	if f.runTimeout <= 0 {
		return fmt.Errorf("--run-timeout must be positive, got %s", f.runTimeout)
	}
	if f.port < 0 || f.port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535, got %d", f.port)
	}
	return nil
}

// openStore opens the config record named by --config, GPTSQL_CONFIG or the default path.
func openStore() (*config.Store, error) {
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return nil, err
		}
	}
	return config.Open(path)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Bool("help", false, "Show help for gptsql")
	pf.StringVarP(&flags.dbType, "dbtype", "t", "", "Database type: PostgreSQL or SingleStore")
	pf.StringVarP(&flags.host, "host", "h", "", "Database host")
	pf.IntVarP(&flags.port, "port", "p", 0, "Database port (default 5432 for PostgreSQL, 3306 for SingleStore)")
	pf.StringVarP(&flags.user, "username", "U", "", "Database user")
	pf.StringVarP(&flags.dbName, "dbname", "d", "", "Database name")
	pf.StringVar(&flags.password, "password", "", "Database password")
	pf.StringVar(&flags.dsn, "dsn", "", "Connection URL (postgres://, mysql:// or singlestore://)")
	pf.StringVar(&flags.configPath, "config", "", "Config file (default ~/.gptsql)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Print debug logs to stderr")

	rootCmd.Flags().StringVar(&flags.model, "model", "", "OpenAI model for a newly created assistant")
	rootCmd.Flags().DurationVar(&flags.runTimeout, "run-timeout", run.DefaultMaxWait, "Give up on an assistant run after this long")
	rootCmd.Flags().BoolVar(&flags.version, "version", false, "Show version information")
}
