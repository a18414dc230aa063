package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory Store used in tests and local development.
// Documents go through a JSON round trip on write so that matching and
// patching behave the same as the PostgreSQL implementation.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]*memoryDoc
}

type memoryDoc struct {
	id     string
	fields map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]*memoryDoc)}
}

// Create persists doc and returns a generated document id.
func (m *Memory) Create(_ context.Context, collection string, doc any) (string, error) {
	fields, err := toFields(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.collections[collection] = append(m.collections[collection], &memoryDoc{
		id:     id,
		fields: fields,
	})
	return id, nil
}

// Query returns matching documents in creation order.
func (m *Memory) Query(_ context.Context, collection string, filter Filter) ([]Record, error) {
	filterFields, err := toFields(filter)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	for _, doc := range m.collections[collection] {
		if !matches(doc.fields, filterFields) {
			continue
		}
		raw, err := json.Marshal(doc.fields)
		if err != nil {
			return nil, errors.Wrap(err, "marshal document")
		}
		out = append(out, Record{ID: doc.id, Data: raw})
	}
	return out, nil
}

// Update merges patch into the document with the given id.
func (m *Memory) Update(_ context.Context, collection, id string, patch Patch) error {
	patchFields, err := toFields(patch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.collections[collection] {
		if doc.id != id {
			continue
		}
		for k, v := range patchFields {
			doc.fields[k] = v
		}
		return nil
	}
	return ErrNotFound
}

// Count returns the number of documents in a collection. Test helper.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

// toFields normalizes any document shape to a JSON object map.
func toFields(doc any) (map[string]any, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "document is not an object")
	}
	return fields, nil
}

// matches reports whether every filter field equals the corresponding
// document field. Equality is structural over JSON-normalized values.
func matches(fields, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok {
			return false
		}
		wantRaw, err := json.Marshal(want)
		if err != nil {
			return false
		}
		gotRaw, err := json.Marshal(got)
		if err != nil {
			return false
		}
		if string(wantRaw) != string(gotRaw) {
			return false
		}
	}
	return true
}
