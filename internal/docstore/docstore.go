// Package docstore defines the persistence collaborator for the checkout
// pipeline: an opaque, schemaless document store reached through create,
// query and update primitives. The store enforces no schema; callers are
// responsible for shaping their records.
package docstore

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
)

// Filter matches documents whose fields contain the given values.
type Filter map[string]any

// Patch is a partial document merged into an existing one on update.
type Patch map[string]any

// Record is a stored document together with its store-assigned identifier.
type Record struct {
	ID   string
	Data json.RawMessage
}

// ErrNotFound is returned by Update when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Store is the document-store collaborator. Implementations assign their
// own document identifiers on Create and return them.
type Store interface {
	// Create persists doc in the named collection and returns the
	// store-assigned document id.
	Create(ctx context.Context, collection string, doc any) (string, error)
	// Query returns all documents in the collection matching the filter,
	// in creation order. A nil filter matches everything.
	Query(ctx context.Context, collection string, filter Filter) ([]Record, error)
	// Update merges patch into the document with the given id.
	Update(ctx context.Context, collection, id string, patch Patch) error
}
