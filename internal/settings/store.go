// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/store"
	"go.astrophena.name/kothbot/internal/syncx"
)

// Store keeps one [Settings] record per conversation identifier, caching
// records in memory and writing them through to a [store.Store].
//
// Concurrent updates of the same conversation are not ordered; the last
// writer wins.
type Store struct {
	kv    store.Store
	cache *syncx.Protected[map[string]Settings]
}

// NewStore returns a new [Store] backed by kv.
func NewStore(kv store.Store) *Store {
	return &Store{
		kv:    kv,
		cache: syncx.Protect(make(map[string]Settings)),
	}
}

// Persistent reports whether settings survive a process restart.
func (s *Store) Persistent() bool { return store.Persistent(s.kv) }

// Get returns settings of the conversation id. On first contact the default
// record is created and written to the backing store. Get never fails:
// backend errors are logged and the in-memory record is used.
func (s *Store) Get(ctx context.Context, id string) Settings {
	var st Settings
	s.cache.Access(func(cache map[string]Settings) {
		if cached, ok := cache[id]; ok {
			st = cached
			return
		}
		st = s.load(ctx, id)
		cache[id] = st
	})
	return st
}

// load reads the record of id from the backing store, creating it if it
// doesn't exist. It must be called with the cache locked.
func (s *Store) load(ctx context.Context, id string) Settings {
	b, err := s.kv.Get(ctx, id)
	if err != nil {
		logger.Warn(ctx, "reading settings failed",
			slog.String("conversation", id),
			slog.Any("err", err),
		)
		return Default()
	}
	if b != nil {
		st := Default()
		err := json.Unmarshal(b, &st)
		if err == nil {
			return st
		}
		logger.Warn(ctx, "stored settings are malformed, using defaults",
			slog.String("conversation", id),
			slog.Any("err", err),
		)
	}
	st := Default()
	if err := s.write(ctx, id, st); err != nil {
		logger.Warn(ctx, "saving default settings failed",
			slog.String("conversation", id),
			slog.Any("err", err),
		)
	}
	return st
}

// Update sets field of the conversation id to value and returns the new
// settings. Invalid values are rejected with an error matching
// [ErrInvalidValue]. The change is written to the backing store before Update
// returns; if that fails, the previous record is kept and the error matches
// [ErrPersist].
func (s *Store) Update(ctx context.Context, id string, field Field, value string) (Settings, error) {
	var (
		st  Settings
		err error
	)
	s.cache.Access(func(cache map[string]Settings) {
		prev, ok := cache[id]
		if !ok {
			prev = s.load(ctx, id)
			cache[id] = prev
		}
		st, err = prev.With(field, value)
		if err != nil {
			st = prev
			return
		}
		if werr := s.write(ctx, id, st); werr != nil {
			st, err = prev, fmt.Errorf("%w: %w", ErrPersist, werr)
			return
		}
		cache[id] = st
	})
	return st, err
}

func (s *Store) write(ctx context.Context, id string, st Settings) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, id, b)
}
