// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"github.com/rs/zerolog/log"

	"gptsql/cli/internal/config"
	"gptsql/cli/internal/keychain"
)

// secrets stores the API key and database password in the OS keychain when
// one is available and in the config record otherwise.
type secrets struct {
	km *keychain.Manager
}

func openSecrets() secrets {
	km, err := keychain.NewManager()
	if err != nil {
		log.Debug().Err(err).Msg("keychain unavailable, secrets stay in the config record")
		return secrets{}
	}
	return secrets{km: km}
}

// load returns the record's value when set, else the keychain's.
func (s secrets) load(key, recorded string) string {
	if recorded != "" || s.km == nil {
		return recorded
	}
	v, err := s.km.Load(key)
	if err != nil {
		if !errors.Is(err, keychain.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("keychain read failed")
		}
		return ""
	}
	return v
}

// save persists value under key and clears the record copy when the
// keychain took it.
func (s secrets) save(store *config.Store, key, value string, field func(*config.Record) *string) error {
	if s.km != nil {
		err := s.km.Save(key, value)
		if err == nil {
			return store.Update(func(r *config.Record) { *field(r) = "" })
		}
		log.Warn().Err(err).Str("key", key).Msg("keychain write failed, saving to the config record")
	}
	return store.Update(func(r *config.Record) { *field(r) = value })
}

func (s secrets) clear() error {
	if s.km == nil {
		return nil
	}
	return s.km.ClearAll()
}

func apiKeyField(r *config.Record) *string     { return &r.APIKey }
func dbPasswordField(r *config.Record) *string { return &r.DBPassword }
