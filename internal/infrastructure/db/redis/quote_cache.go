package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const quoteTTL = time.Minute

// QuoteCache caches unlock price quotes for a short window so repeated
// previews of the same listing skip recomputation. The elapsed-day count
// is part of the key: when the listing crosses a day boundary the old
// entry simply stops matching, so a stale price is never served.
// Key format: quote:<listing_id>:<elapsed_days>
type QuoteCache struct {
	client *redis.Client
}

// NewQuoteCache creates a QuoteCache wrapping the given Redis client.
func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{client: client}
}

// Get returns the cached amount for the listing at the given age, if any.
func (q *QuoteCache) Get(ctx context.Context, listingID string, elapsedDays int64) (decimal.Decimal, bool, error) {
	val, err := q.client.Get(ctx, q.key(listingID, elapsedDays)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("quote cache get: %w", err)
	}

	amount, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("quote cache decode: %w", err)
	}
	return amount, true, nil
}

// Set stores the amount for the listing at the given age (expires after
// quoteTTL).
func (q *QuoteCache) Set(ctx context.Context, listingID string, elapsedDays int64, amount decimal.Decimal) error {
	return q.client.Set(ctx, q.key(listingID, elapsedDays), amount.String(), quoteTTL).Err()
}

func (q *QuoteCache) key(listingID string, elapsedDays int64) string {
	return fmt.Sprintf("quote:%s:%d", listingID, elapsedDays)
}
