// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runstore keeps the history of churneval reports in an embedded
// BadgerDB, keyed by report id.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/churneval/cmd/churneval/internal/report"
)

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("run not found")

	// ErrNoPath is returned by Open for a persistent store without a path.
	ErrNoPath = errors.New("path is required for persistent store")
)

const keyPrefix = "run/"

// Config holds configuration for a Store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger

	// GCDiscardRatio is the garbage ratio that triggers value log GC on
	// Close. Zero disables it.
	GCDiscardRatio float64
}

// DefaultConfig returns durable settings for a store at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true, GCDiscardRatio: 0.5}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store persists reports.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	db      *badger.DB
	gcRatio float64
	logger  *slog.Logger
}

// Open opens or creates a store.
//
// Outputs:
//   - *Store: The opened store. Caller must call Close() when done.
//   - error: ErrNoPath, or a wrapped BadgerDB error.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrNoPath
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	ratio := cfg.GCDiscardRatio
	if cfg.InMemory {
		ratio = 0
	}
	return &Store{db: db, gcRatio: ratio, logger: logger}, nil
}

// Save stores rep under its id, replacing any earlier report with the
// same id.
func (s *Store) Save(rep *report.Report) error {
	if rep == nil || rep.ID == "" {
		return errors.New("report must have an id")
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rep.ID), data)
	})
}

// Get loads one report.
func (s *Store) Get(id string) (*report.Report, error) {
	var rep report.Report
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rep)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// List returns up to limit reports, newest first. A limit of zero or less
// returns all of them.
func (s *Store) List(limit int) ([]*report.Report, error) {
	var out []*report.Report
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rep report.Report
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rep)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, &rep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a report. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}

// Close runs one value log GC pass when configured, then closes the
// database.
func (s *Store) Close() error {
	if s.gcRatio > 0 {
		// RunValueLogGC returns ErrNoRewrite when nothing needed collecting
		if err := s.db.RunValueLogGC(s.gcRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			s.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
		}
	}
	return s.db.Close()
}
