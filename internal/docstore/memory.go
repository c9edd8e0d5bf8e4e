package docstore

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It applies the same index rules as the
// persistent drivers so fallback paths behave identically in tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	indexes     IndexSet
}

// NewMemory creates an empty store honouring the declared indexes.
func NewMemory(indexes IndexSet) *Memory {
	if indexes == nil {
		indexes = IndexSet{}
	}
	return &Memory{
		collections: map[string]map[string]map[string]interface{}{},
		indexes:     indexes,
	}
}

// Get returns one document or ErrNotFound.
func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	data, ok := m.collections[collection][id]
	m.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	cp, err := Normalize(data)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: cp}, nil
}

// Add stores data under a generated id.
func (m *Memory) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.New().String()
	if err := m.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces the document at id.
func (m *Memory) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp, err := Normalize(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = map[string]map[string]interface{}{}
		m.collections[strings.Clone(collection)] = coll
	}
	// keys may alias a caller's buffer
	coll[strings.Clone(id)] = cp
	return nil
}

// Query evaluates q after the index check.
func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := m.indexes.Check(q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := make([]Document, 0, len(m.collections[q.Collection]))
	for id, data := range m.collections[q.Collection] {
		docs = append(docs, Document{ID: id, Data: data})
	}
	m.mu.RUnlock()

	result := Apply(docs, q)
	for i := range result {
		cp, err := Normalize(result[i].Data)
		if err != nil {
			return nil, err
		}
		result[i].Data = cp
	}
	return result, nil
}
