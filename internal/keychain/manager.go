// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps gptsql secrets (the OpenAI API key and the database
// password) in the OS credential store instead of the plain config record.
//
// macOS uses the native `security` command first and the Keychain/pass
// backends of 99designs/keyring second; Windows uses Credential Manager. Other
// platforms have no supported store and NewManager returns an error, which
// callers treat as "keep the secret in the config record".
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "gptsql"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAPIKey     = "openai_api_key"
	KeyDBPassword = "db_password"
)

// ErrNotFound is returned by Load when the key holds no value.
var ErrNotFound = errors.New("keychain: secret not found")

// backend is the minimal operation set shared by the keyring library and the
// macOS security command.
type backend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe access to the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	backend backend
}

// NewManager opens the platform credential store.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if b, err := newSecurityBackend(); err == nil {
			return &Manager{backend: b}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{backend: ringBackend{ring: ring}}
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass is the fallback when the Keychain is locked down
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		return nil, errors.New("secure storage not supported on this OS (macOS/Windows only)")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	}
	return keyring.Open(cfg)
}

// Save stores value under key. An empty value removes the key.
func (m *Manager) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		return m.backend.Delete(key)
	}
	return m.backend.Set(key, value)
}

// Load returns the value stored under key, or ErrNotFound.
func (m *Manager) Load(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, err := m.backend.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// ClearAll removes every gptsql secret. Missing keys are ignored.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, k := range []string{KeyAPIKey, KeyDBPassword} {
		if err := m.backend.Delete(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type ringBackend struct {
	ring keyring.Keyring
}

func (r ringBackend) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (r ringBackend) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringBackend) Delete(key string) error {
	if err := r.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
