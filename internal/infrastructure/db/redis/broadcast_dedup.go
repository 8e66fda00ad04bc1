package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const broadcastTTL = 24 * time.Hour

// BroadcastDedup ensures each listing's new-listing announcement is
// fanned out at most once, even if the publish job is enqueued again
// after a restart or retry.
// Key format: broadcast:<listing_id>
type BroadcastDedup struct {
	client *redis.Client
}

// NewBroadcastDedup creates a BroadcastDedup wrapping the given Redis client.
func NewBroadcastDedup(client *redis.Client) *BroadcastDedup {
	return &BroadcastDedup{client: client}
}

// Claim atomically marks the listing's broadcast as taken and reports
// whether this caller won the claim.
func (d *BroadcastDedup) Claim(ctx context.Context, listingID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(listingID), "1", broadcastTTL).Result()
	if err != nil {
		return false, fmt.Errorf("broadcast claim: %w", err)
	}
	return ok, nil
}

func (d *BroadcastDedup) key(listingID string) string {
	return "broadcast:" + listingID
}
