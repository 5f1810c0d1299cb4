// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package store implements a flat key-value store backed in-memory, by a JSON
// file, by SQLite or by PostgreSQL.
//
// Values are JSON documents. Keys are never expired.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a generic interface for a key-value store.
type Store interface {
	// Get retrieves a value for a given key.
	// It must return (nil, nil) if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for a given key. When Set returns without error,
	// the value has reached the backend.
	Set(ctx context.Context, key string, value []byte) error
	// Close closes the store and releases any resources.
	Close() error
}

// Persistent reports whether s keeps its contents across process restarts.
// Stores that don't say otherwise are assumed to be persistent.
func Persistent(s Store) bool {
	if p, ok := s.(interface{ Persistent() bool }); ok {
		return p.Persistent()
	}
	return true
}

// Config selects a backend for [Open].
type Config struct {
	// DatabaseURL is a PostgreSQL connection string.
	DatabaseURL string
	// SQLiteDB is a path to the SQLite database file.
	SQLiteDB string
	// DataDir is a directory where the JSON file is kept.
	DataDir string
}

// JSONFileName is the name of the file created by [Open] inside
// [Config.DataDir].
const JSONFileName = "settings.json"

// Open opens the backend selected by c. The first configured option wins, in
// this order: DatabaseURL, SQLiteDB, DataDir. If nothing is configured, Open
// returns an in-memory store that is reset on restart.
func Open(ctx context.Context, c Config) (Store, error) {
	switch {
	case c.DatabaseURL != "":
		s, err := NewPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening PostgreSQL store: %w", err)
		}
		return s, nil
	case c.SQLiteDB != "":
		s, err := NewSQLite(ctx, c.SQLiteDB)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite store: %w", err)
		}
		return s, nil
	case c.DataDir != "":
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		s, err := NewJSONFile(filepath.Join(c.DataDir, JSONFileName))
		if err != nil {
			return nil, fmt.Errorf("opening JSON file store: %w", err)
		}
		return s, nil
	}
	return NewMem(), nil
}
