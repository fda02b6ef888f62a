// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store is the persisted data layer. Every entity lives in a named
// collection that is read and written whole; the raw blobs are kept by a
// Backend (PostgreSQL, Valkey or memory) and typed access goes through
// Collection and the PostStore, AdminStore and TicketStore wrappers.
package store

import (
	"context"
	"errors"
	"sync"
)

// Collection names as they appear in the backend.
const (
	CollectionPosts   = "blogPosts"
	CollectionAdmins  = "adminUsers"
	CollectionTickets = "supportTickets"
)

// Sentinel errors returned by the typed stores. Handlers map them to
// HTTP responses with errors.Is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrMainAdmin         = errors.New("the main admin account cannot be deleted")
	ErrSelfDelete        = errors.New("you cannot delete your own account")
	ErrDuplicateEmail    = errors.New("an account with this email already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyClosed     = errors.New("ticket is already closed")
	ErrNotPending        = errors.New("only pending comments can be moderated")
	ErrSchemaTooNew      = errors.New("stored collection has a newer schema version")
)

// Backend reads and writes whole collection blobs. Load returns nil, nil
// when the collection has never been written.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
}

// MemoryBackend keeps collections in process memory. It backs the test
// suites and STORE_BACKEND=memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Load returns a copy of the stored blob.
func (m *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

// Save replaces the stored blob with a copy of payload.
func (m *MemoryBackend) Save(_ context.Context, name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = append([]byte(nil), payload...)
	return nil
}
