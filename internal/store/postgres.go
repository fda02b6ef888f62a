// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresBackend stores each collection as one JSONB row in the
// collections table created by the goose migrations.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a backend on an open, migrated connection pool.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Load fetches the payload for a collection.
func (b *PostgresBackend) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `
		SELECT payload FROM collections WHERE name = $1
	`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", name, err)
	}
	return payload, nil
}

// Save upserts the payload for a collection.
func (b *PostgresBackend) Save(ctx context.Context, name string, payload []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO collections (name, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, name, payload)
	if err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}
