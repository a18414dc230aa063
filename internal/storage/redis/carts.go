// Package redis persists session cart snapshots so carts survive process
// restarts. Snapshots expire with the session TTL; the cart of record
// lives in memory and treats this layer as best-effort.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/glowcart/checkout-api/internal/domain/cart"
)

var _ cart.Persister = (*CartStore)(nil)

// CartStore implements cart.Persister on Redis.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore returns a CartStore writing snapshots with the given TTL.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load restores the snapshot for a session. Returns
// cart.ErrSnapshotNotFound when none exists.
func (s *CartStore) Load(ctx context.Context, sessionID string) ([]cart.LineItem, error) {
	raw, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart snapshot")
	}

	var items []cart.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}
	return items, nil
}

// Save writes the session's snapshot, refreshing its TTL.
func (s *CartStore) Save(ctx context.Context, sessionID string, items []cart.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode cart snapshot")
	}
	if err := s.client.Set(ctx, cartKey(sessionID), raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set cart snapshot")
	}
	return nil
}

// Delete removes the session's snapshot.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart snapshot")
	}
	return nil
}
