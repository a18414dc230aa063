package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowcart/checkout-api/internal/docstore"
)

var _ docstore.Store = (*DocStore)(nil)

// DocStore implements docstore.Store on a single JSONB table. Filters use
// JSONB containment, so they hit the GIN index.
type DocStore struct {
	pool *pgxpool.Pool
}

// NewDocStore returns a DocStore that uses the given pool.
func NewDocStore(pool *pgxpool.Pool) *DocStore {
	return &DocStore{pool: pool}
}

const createDocSQL = `INSERT INTO documents (id, collection, doc) VALUES ($1, $2, $3)`

// Create persists doc in the named collection and returns the generated
// document id.
func (s *DocStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling document: %w", err)
	}

	id := uuid.New().String()
	if _, err := s.pool.Exec(ctx, createDocSQL, id, collection, raw); err != nil {
		return "", fmt.Errorf("creating document in %q: %w", collection, err)
	}
	return id, nil
}

const (
	queryAllSQL = `SELECT id, doc FROM documents
	WHERE collection = $1 ORDER BY created_at, id`
	queryFilterSQL = `SELECT id, doc FROM documents
	WHERE collection = $1 AND doc @> $2 ORDER BY created_at, id`
)

// Query returns matching documents in creation order.
func (s *DocStore) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(filter) == 0 {
		rows, err = s.pool.Query(ctx, queryAllSQL, collection)
	} else {
		var filterRaw []byte
		filterRaw, err = json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshaling filter: %w", err)
		}
		rows, err = s.pool.Query(ctx, queryFilterSQL, collection, filterRaw)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Record
	for rows.Next() {
		var rec docstore.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, fmt.Errorf("scanning document from %q: %w", collection, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents from %q: %w", collection, err)
	}
	return out, nil
}

const updateDocSQL = `UPDATE documents
	SET doc = doc || $3, updated_at = now()
	WHERE collection = $1 AND id = $2`

// Update merges patch into the document with the given id.
func (s *DocStore) Update(ctx context.Context, collection, id string, patch docstore.Patch) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	tag, err := s.pool.Exec(ctx, updateDocSQL, collection, id, raw)
	if err != nil {
		return fmt.Errorf("updating document %q in %q: %w", id, collection, err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}
