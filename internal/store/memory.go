package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/policy"
)

// MemoryStore is an in-memory implementation of link.Repository.
type MemoryStore struct {
	mu    sync.Mutex
	links map[link.ID]*link.Link
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[link.ID]*link.Link),
	}
}

func (m *MemoryStore) Insert(_ context.Context, l *link.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[l.ID]; ok {
		return link.ErrConflict
	}

	m.links[l.ID] = l.Clone()

	return nil
}

func (m *MemoryStore) Exists(_ context.Context, id link.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.links[id]

	return ok, nil
}

func (m *MemoryStore) Get(_ context.Context, id link.ID) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return nil, link.ErrNotFound
	}

	return l.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id link.ID, mutate link.Mutation) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.links[id]
	if !ok {
		return nil, link.ErrNotFound
	}

	l := stored.Clone()
	if mutate(l) {
		m.links[id] = l.Clone()
	}

	return l, nil
}

func (m *MemoryStore) Overwrite(_ context.Context, id link.ID, destination string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.links[id]; ok {
		l.Destination = destination
	}

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id link.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, id)

	return nil
}

func (m *MemoryStore) ExpiredBefore(_ context.Context, t time.Time, limit int) ([]link.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []link.ID

	for id, l := range m.links {
		if limit > 0 && len(ids) >= limit {
			break
		}

		if deadline, ok := policy.Deadline(l.Policy); ok && !deadline.After(t) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Ping always succeeds; it lets the memory store stand in for a database in health checks.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Compile-time check.
var _ link.Repository = (*MemoryStore)(nil)
