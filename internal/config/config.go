// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores the gptsql configuration record.
// The record is a single flat JSON object holding connection settings, the
// assistant/thread identifiers of the running conversation and the watermark of
// the last printed message. It is overwritten wholesale on every mutation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	apperrors "gptsql/cli/internal/errors"
)

// Port is a TCP port that also accepts the quoted form older config files contain.
type Port int

// UnmarshalJSON accepts both 5432 and "5432".
func (p *Port) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*p = Port(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("DBPORT: %w", err)
	}
	if s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("DBPORT: %w", err)
	}
	*p = Port(n)
	return nil
}

// Record is the persisted configuration. Absent values are omitted from the
// file rather than written as null.
type Record struct {
	DBType     string `json:"DBTYPE,omitempty"`
	DBHost     string `json:"DBHOST,omitempty"`
	DBPort     Port   `json:"DBPORT,omitempty"`
	DBUser     string `json:"DBUSER,omitempty"`
	DBPassword string `json:"DBPASSWORD,omitempty"`
	DBName     string `json:"DBNAME,omitempty"`

	APIKey string `json:"OPENAI_API_KEY,omitempty"`
	Model  string `json:"model,omitempty"`

	AssistantID string `json:"assistant_id,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
	LastRunID   string `json:"last_run_id,omitempty"`

	// LastMessageTime is the created_at of the newest message already printed.
	LastMessageTime time.Time `json:"last_message_time,omitzero"`
}

// HasConnection reports whether the record carries a saved database connection.
func (r Record) HasConnection() bool {
	return r.DBUser != "" && r.DBHost != ""
}

// Load reads the record at path; a missing file returns an empty record.
func Load(path string) (Record, error) {
	var r Record
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, apperrors.Wrap(apperrors.ConfigCorrupt, path, err)
	}
	return r, nil
}

// Save writes the record to path with 0600 permissions. The data goes to a
// temporary file in the same directory first and is renamed over path, so a
// concurrent reader never sees a half-written file.
func Save(path string, r Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Store owns the in-memory record and its file. Every mutation is flushed
// to disk before Update returns.
type Store struct {
	path string
	mu   sync.Mutex
	rec  Record
}

// Open loads the record at path into a new Store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Record returns a copy of the current record.
func (s *Store) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Reload discards the in-memory record and reads the file again.
func (s *Store) Reload() (Record, error) {
	r, err := Load(s.path)
	if err != nil {
		return r, err
	}
	s.mu.Lock()
	s.rec = r
	s.mu.Unlock()
	return r, nil
}

// Save replaces the whole record and persists it.
func (s *Store) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := Save(s.path, r); err != nil {
		return err
	}
	s.rec = r
	return nil
}

// Update applies fn to a copy of the record and persists the result.
// The in-memory record only changes when the write succeeds.
func (s *Store) Update(fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.rec
	fn(&next)
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.rec = next
	return nil
}

// Clear removes the config file and empties the record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.rec = Record{}
	return nil
}
