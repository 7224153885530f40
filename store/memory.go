package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps everything in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]string)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Ensure(_ context.Context, collection string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = make(map[string]string)
	}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, collection, id string) (string, bool, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	return doc, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, collection, id, doc string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]string)
		m.collections[collection] = coll
	}
	coll[id] = doc
	return nil
}

func (m *MemoryStore) Update(_ context.Context, collection, id, doc string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll := m.collections[collection]
	if _, ok := coll[id]; ok {
		coll[id] = doc
	}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, collection, id string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) Scan(_ context.Context, collection string) ([]Row, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll := m.collections[collection]
	rows := make([]Row, 0, len(coll))
	for id, doc := range coll {
		rows = append(rows, Row{ID: id, Document: doc})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}
