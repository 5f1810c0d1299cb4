// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"

	"crawshaw.dev/jsonfile"
)

// JSONFile is a file-backed implementation of the [Store] interface.
//
// Every Set rewrites the file atomically before returning.
type JSONFile struct {
	f *jsonfile.JSONFile[jsonStore]
}

type jsonStore struct {
	Data map[string]json.RawMessage `json:"data"`
}

// NewJSONFile creates a new [JSONFile] backed by the file at path, creating
// the file if it doesn't exist.
func NewJSONFile(path string) (*JSONFile, error) {
	f, err := jsonfile.Load[jsonStore](path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = jsonfile.New[jsonStore](path)
		if err == nil {
			err = f.Write(func(js *jsonStore) error {
				js.Data = make(map[string]json.RawMessage)
				return nil
			})
		}
	}
	if err != nil {
		return nil, err
	}
	return &JSONFile{f: f}, nil
}

// Get retrieves a value for a given key.
func (s *JSONFile) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	s.f.Read(func(js *jsonStore) {
		if v, ok := js.Data[key]; ok {
			val = append([]byte(nil), v...)
		}
	})
	return val, nil
}

// Set stores a value for a given key. The value must be valid JSON.
func (s *JSONFile) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.New("store: value is not valid JSON")
	}
	return s.f.Write(func(js *jsonStore) error {
		if js.Data == nil {
			js.Data = make(map[string]json.RawMessage)
		}
		js.Data[key] = append(json.RawMessage(nil), value...)
		return nil
	})
}

// Close closes the file store.
func (s *JSONFile) Close() error { return nil }
