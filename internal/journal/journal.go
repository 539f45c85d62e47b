// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package journal keeps a local log of every statement the assistant ran,
// in a SQLite file under the state directory, so the user can review what
// was executed against their database.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one executed statement.
type Entry struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index;size:36"`
	ThreadID   string `gorm:"index"`
	Query      string
	Rows       int
	DurationMs int64
	Error      string
	CreatedAt  time.Time `gorm:"index"`
}

// Journal appends entries for one CLI session.
type Journal struct {
	db      *gorm.DB
	session string
}

// Open opens (or creates) the journal at path. ":memory:" keeps it in memory.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Journal{db: db, session: uuid.NewString()}, nil
}

// SessionID identifies the entries written by this process.
func (j *Journal) SessionID() string { return j.session }

// Record stores e, stamping it with the session id.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	e.ID = 0
	e.SessionID = j.session
	return j.db.WithContext(ctx).Create(&e).Error
}

// Recent returns the newest n entries across all sessions, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	var out []Entry
	err := j.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(n).Find(&out).Error
	return out, err
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
