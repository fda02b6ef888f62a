// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// collectionKeyPrefix namespaces collection keys in Valkey.
const collectionKeyPrefix = "collection:"

// ValkeyBackend stores each collection under its own key with no expiry.
type ValkeyBackend struct {
	client *redis.Client
}

// NewValkeyBackend creates a backend on a connected Valkey client.
func NewValkeyBackend(client *redis.Client) *ValkeyBackend {
	return &ValkeyBackend{client: client}
}

// Load fetches the payload for a collection.
func (b *ValkeyBackend) Load(ctx context.Context, name string) ([]byte, error) {
	payload, err := b.client.Get(ctx, collectionKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", name, err)
	}
	return payload, nil
}

// Save replaces the payload for a collection.
func (b *ValkeyBackend) Save(ctx context.Context, name string, payload []byte) error {
	if err := b.client.Set(ctx, collectionKeyPrefix+name, payload, 0).Err(); err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}
