// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Migration upgrades one stored record from schema version From to From+1.
// Records are handed over as generic JSON objects so a migration can rename
// or reshape fields that no longer exist on the Go type.
type Migration struct {
	From int
	Up   func(rec map[string]any) error
}

// envelope is the on-disk shape of a collection. Payloads that are a bare
// JSON array predate versioning and are read as version 0.
type envelope struct {
	Version int             `json:"version"`
	Records json.RawMessage `json:"records"`
}

// Collection is a named, whole-replace list of records of type T.
// Reads never fail on malformed data: the collection falls back to empty
// and logs a warning. Update serialises read-modify-write cycles within
// this process.
type Collection[T any] struct {
	name       string
	version    int
	migrations []Migration
	backend    Backend
	mu         sync.Mutex
}

// NewCollection binds a collection name to a backend. version is the
// current schema version written on every Set; migrations must cover every
// step from 0 up to version.
func NewCollection[T any](backend Backend, name string, version int, migrations ...Migration) *Collection[T] {
	return &Collection[T]{
		name:       name,
		version:    version,
		migrations: migrations,
		backend:    backend,
	}
}

// Name returns the collection's backend key.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get returns every record in the collection, or an empty slice when the
// collection is missing or cannot be parsed.
func (c *Collection[T]) Get(ctx context.Context) ([]T, error) {
	payload, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decode(payload)
}

// Set replaces the whole collection.
func (c *Collection[T]) Set(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, records)
}

// Update loads the collection, passes it to fn and writes back whatever fn
// returns. If fn returns an error nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.Get(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return c.write(ctx, updated)
}

func (c *Collection[T]) write(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	payload, err := json.Marshal(envelope{Version: c.version, Records: raw})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", c.name, err)
	}
	return c.backend.Save(ctx, c.name, payload)
}

// decode turns a stored payload into records, applying migrations when the
// payload is older than the current version.
func (c *Collection[T]) decode(payload []byte) ([]T, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return []T{}, nil
	}

	env := envelope{Records: payload}
	if payload[0] != '[' {
		if err := json.Unmarshal(payload, &env); err != nil {
			slog.Warn("collection unreadable, using empty default", "collection", c.name, "error", err)
			return []T{}, nil
		}
	}

	if env.Version > c.version {
		return nil, fmt.Errorf("%s at version %d: %w", c.name, env.Version, ErrSchemaTooNew)
	}

	raw := env.Records
	if env.Version < c.version {
		migrated, err := c.migrate(raw, env.Version)
		if err != nil {
			slog.Warn("collection migration failed, using empty default",
				"collection", c.name, "from", env.Version, "to", c.version, "error", err)
			return []T{}, nil
		}
		raw = migrated
	}

	if len(raw) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.Warn("collection records unreadable, using empty default", "collection", c.name, "error", err)
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// migrate runs every migration step from version up to the current one.
func (c *Collection[T]) migrate(raw json.RawMessage, from int) (json.RawMessage, error) {
	var recs []map[string]any
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode for migration: %w", err)
	}

	for v := from; v < c.version; v++ {
		m, ok := c.findMigration(v)
		if !ok {
			return nil, fmt.Errorf("no migration from version %d", v)
		}
		for _, rec := range recs {
			if err := m.Up(rec); err != nil {
				return nil, fmt.Errorf("migrate record from version %d: %w", v, err)
			}
		}
	}

	slog.Info("collection migrated", "collection", c.name, "from", from, "to", c.version, "records", len(recs))
	return json.Marshal(recs)
}

func (c *Collection[T]) findMigration(from int) (Migration, bool) {
	for _, m := range c.migrations {
		if m.From == from {
			return m, true
		}
	}
	return Migration{}, false
}
