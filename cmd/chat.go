// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/chat"
	"gptsql/cli/internal/config"
	"gptsql/cli/internal/dsn"
	"gptsql/cli/internal/journal"
	"gptsql/cli/internal/keychain"
	"gptsql/cli/internal/logging"
	"gptsql/cli/internal/run"
	"gptsql/cli/internal/sqlexec"
	"gptsql/cli/internal/terminal"
	"gptsql/cli/internal/tools"
	"gptsql/cli/internal/xdg"
)

// runChat wires the session: connection, credentials, journal, result
// cache, assistant client and run driver.
func runChat(ctx context.Context) error {
	interactive := terminal.IsInteractive()
	store, err := openStore()
	if err != nil {
		return err
	}
	sec := openSecrets()

	gw, desc, err := connect(ctx, store, sec, interactive)
	if err != nil {
		return err
	}
	defer gw.Close()

	apiKey, err := resolveAPIKey(store, sec, interactive)
	if err != nil {
		return err
	}
	model := resolveModel(store.Record())

	cache := openCache(ctx)
	if c, ok := cache.(io.Closer); ok {
		defer c.Close()
	}
	opts := []tools.Option{tools.WithCache(cache)}
	var queries chat.QueryLog
	if j := openJournal(); j != nil {
		defer j.Close()
		opts = append(opts, tools.WithRecorder(j))
		queries = j
	}
	dispatcher := tools.New(gw, opts...)

	svc := assistant.NewOpenAI(apiKey, env.BaseURL)
	spinner := chat.NewSpinner(interactive, os.Stdout)
	driver := run.NewDriver(svc, dispatcher, store, spinner)
	driver.MaxWait = flags.runTimeout

	a, th, err := chat.Bootstrap(ctx, svc, store, model, driver)
	if err != nil {
		logging.PresentServiceError("starting the conversation", err)
		return reported{err}
	}
	log.Info().Str("assistant", a.ID).Str("thread", th.ID).Str("model", a.Model).Msg("session ready")

	console, err := openConsole()
	if err != nil {
		return err
	}
	defer console.Close()

	session := chat.New(chat.Deps{
		Service:    svc,
		Driver:     driver,
		Gateway:    gw,
		Store:      store,
		Journal:    queries,
		Descriptor: desc,
		Assistant:  a,
		Thread:     th,
		Input:      console,
		Progress:   spinner,
		Renderer:   chat.NewRenderer(interactive, terminal.Width()),
	})
	session.CatchInterrupts()
	if err := session.Run(ctx); err != nil {
		logging.PresentServiceError("talking to the assistant", err)
		return reported{err}
	}
	return nil
}

// connect resolves the connection and opens it, running the wizard when
// nothing is configured.
func connect(ctx context.Context, store *config.Store, sec secrets, interactive bool) (sqlexec.Gateway, dsn.Descriptor, error) {
	desc, err := resolveConnection(store.Record(), sec)
	if err != nil {
		return nil, desc, err
	}
	if desc.Host == "" {
		if !interactive {
			return nil, desc, errNoTerminal("the database connection")
		}
		desc, gw, err := connectionWizard(ctx, store, sec, desc)
		return gw, desc, err
	}
	log.Debug().Str("source", connectionSource(store.Record())).Str("url", logging.Mask(desc.URL())).Msg("connecting")
	gw, err := sqlexec.Open(ctx, desc)
	if err != nil {
		logging.PresentConnectionError(desc.Host, err)
		return nil, desc, reported{err}
	}
	return gw, desc, nil
}

// resolveAPIKey prefers the saved key (record or keychain) over OPENAI_API_KEY
// and prompts only when neither is set.
func resolveAPIKey(store *config.Store, sec secrets, interactive bool) (string, error) {
	if key := sec.load(keychain.KeyAPIKey, store.Record().APIKey); key != "" {
		return key, nil
	}
	if env.APIKey != "" {
		return env.APIKey, nil
	}
	if !interactive {
		return "", errNoTerminal("OPENAI_API_KEY")
	}
	key, err := promptAPIKey(store, sec)
	if err != nil {
		return "", err
	}
	if store.Record().Model == "" && flags.model == "" && env.Model == "" {
		if _, err := promptModel(store); err != nil {
			return "", err
		}
	}
	return key, nil
}

func resolveModel(rec config.Record) string {
	switch {
	case flags.model != "":
		return flags.model
	case env.Model != "":
		return env.Model
	case rec.Model != "":
		return rec.Model
	}
	return assistant.Models[0]
}

// openCache uses Redis when GPTSQL_REDIS_URL is set and reachable.
func openCache(ctx context.Context) tools.ResultCache {
	if env.RedisURL == "" {
		return tools.NewMemoryCache()
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c, err := tools.RedisConfig{URL: env.RedisURL, DialTimeout: 3 * time.Second}.NewRedisCache(cctx)
	if err != nil {
		logging.Warn("Redis result cache unavailable, using memory", err)
		return tools.NewMemoryCache()
	}
	return c
}

// openJournal opens the query journal; failures only cost the "queries" command.
func openJournal() *journal.Journal {
	p, err := xdg.StatePath("journal.db")
	if err == nil {
		var j *journal.Journal
		if j, err = journal.Open(p); err == nil {
			return j
		}
	}
	logging.Warn("query journal unavailable", err)
	return nil
}

func openConsole() (*chat.Console, error) {
	p, err := xdg.StatePath("history")
	if err != nil {
		return nil, err
	}
	c, err := chat.NewConsole(p)
	if err != nil {
		return nil, errors.Join(errors.New("could not open the console"), err)
	}
	return c, nil
}
