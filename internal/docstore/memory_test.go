package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateAndQuery(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, "orders", map[string]any{"orderId": "ORD-1", "status": "pending"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = m.Create(ctx, "orders", map[string]any{"orderId": "ORD-2", "status": "pending"})
	require.NoError(t, err)

	records, err := m.Query(ctx, "orders", Filter{"orderId": "ORD-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(records[0].Data, &doc))
	assert.Equal(t, "ORD-1", doc["orderId"])
}

func TestMemory_QueryNilFilterReturnsAllInOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, oid := range []string{"a", "b", "c"} {
		_, err := m.Create(ctx, "orders", map[string]any{"orderId": oid})
		require.NoError(t, err)
	}

	records, err := m.Query(ctx, "orders", nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal(records[0].Data, &first))
	assert.Equal(t, "a", first["orderId"])
}

func TestMemory_Update(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, "orders", map[string]any{"orderId": "ORD-1", "status": "pending"})
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, "orders", id, Patch{"status": "processing"}))

	records, err := m.Query(ctx, "orders", Filter{"status": "processing"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemory_UpdateMissingDocument(t *testing.T) {
	m := NewMemory()

	err := m.Update(context.Background(), "orders", "nope", Patch{"status": "processing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CollectionsAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "orders", map[string]any{"orderId": "ORD-1"})
	require.NoError(t, err)

	records, err := m.Query(ctx, "invoices", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, m.Count("orders"))
}

func TestMemory_CreateRejectsNonObject(t *testing.T) {
	m := NewMemory()

	_, err := m.Create(context.Background(), "orders", "just a string")
	assert.Error(t, err)
}
