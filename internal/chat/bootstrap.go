// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/assistant"
	"gptsql/cli/internal/config"
	apperrors "gptsql/cli/internal/errors"
	"gptsql/cli/internal/run"
)

// StaleCanceller cancels a run left over from a previous process.
type StaleCanceller interface {
	CancelStale(ctx context.Context, threadID string) error
}

// Bootstrap returns the saved assistant and thread, creating (and saving)
// whichever is missing or no longer known to the service, then cancels the
// previous process's run on that thread.
func Bootstrap(ctx context.Context, svc assistant.Service, store run.Store, model string, stale StaleCanceller) (assistant.Assistant, assistant.Thread, error) {
	a, err := ensureAssistant(ctx, svc, store, model)
	if err != nil {
		return assistant.Assistant{}, assistant.Thread{}, err
	}
	th, err := ensureThread(ctx, svc, store)
	if err != nil {
		return a, assistant.Thread{}, err
	}
	if stale != nil {
		if err := stale.CancelStale(ctx, th.ID); err != nil {
			return a, th, err
		}
	}
	return a, th, nil
}

func ensureAssistant(ctx context.Context, svc assistant.Service, store run.Store, model string) (assistant.Assistant, error) {
	if id := store.Record().AssistantID; id != "" {
		a, err := svc.RetrieveAssistant(ctx, id)
		if err == nil {
			if model != "" && a.Model != model {
				log.Info().Str("assistant", a.ID).Str("model", a.Model).Str("configured", model).Msg("assistant uses a different model")
			}
			return a, nil
		}
		if !errors.Is(err, apperrors.NotFound) {
			return assistant.Assistant{}, err
		}
		log.Info().Str("assistant", id).Msg("saved assistant not found, creating a new one")
	}
	a, err := svc.CreateAssistant(ctx, assistant.DefaultSpec(model))
	if err != nil {
		return assistant.Assistant{}, err
	}
	if err := store.Update(func(r *config.Record) { r.AssistantID = a.ID }); err != nil {
		return a, err
	}
	return a, nil
}

func ensureThread(ctx context.Context, svc assistant.Service, store run.Store) (assistant.Thread, error) {
	if id := store.Record().ThreadID; id != "" {
		th, err := svc.RetrieveThread(ctx, id)
		if err == nil {
			return th, nil
		}
		if !errors.Is(err, apperrors.NotFound) {
			return assistant.Thread{}, err
		}
		log.Info().Str("thread", id).Msg("saved thread not found, starting a new one")
	}
	return newThread(ctx, svc, store)
}

func newThread(ctx context.Context, svc assistant.Service, store run.Store) (assistant.Thread, error) {
	th, err := svc.CreateThread(ctx)
	if err != nil {
		return assistant.Thread{}, err
	}
	err = store.Update(func(r *config.Record) {
		r.ThreadID = th.ID
		r.LastRunID = ""
	})
	return th, err
}
