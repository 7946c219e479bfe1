package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// SnapshotCache stores the latest serialized state snapshot so read-side
// consumers can render the room without holding a live connection.
type SnapshotCache struct {
	client *redis.Client
}

func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

func (c *SnapshotCache) SetSnapshot(ctx context.Context, auctionID string, payload []byte) error {
	key := fmt.Sprintf("auction:%s:snapshot", auctionID)
	return c.client.Set(ctx, key, payload, 0).Err()
}
