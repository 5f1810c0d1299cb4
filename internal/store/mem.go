// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"

	"go.astrophena.name/kothbot/internal/syncx"
)

// Mem is an in-memory implementation of the [Store] interface. Its contents
// are lost when the process exits.
type Mem struct {
	m syncx.Map[string, []byte]
}

// NewMem creates a new empty [Mem].
func NewMem() *Mem { return new(Mem) }

// Get retrieves a value for a given key.
func (s *Mem) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := s.m.Load(key)
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent the caller from mutating the store.
	return append([]byte(nil), val...), nil
}

// Set stores a value for a given key.
func (s *Mem) Set(_ context.Context, key string, value []byte) error {
	s.m.Store(key, append([]byte(nil), value...))
	return nil
}

// Persistent always returns false.
func (s *Mem) Persistent() bool { return false }

// Close is a no-op for Mem.
func (s *Mem) Close() error { return nil }
