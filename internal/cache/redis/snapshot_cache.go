package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using Redis string values.
// Each item's latest snapshot is stored JSON-encoded at key
// "snapshot:{itemName}" with an optional TTL so stale prices age out between
// polling ticks.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A ttl
// of zero keeps entries until explicitly invalidated.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func snapshotKey(itemName string) string {
	return "snapshot:" + itemName
}

// cachedListing mirrors domain.MarketListing for stable JSON encoding.
type cachedListing struct {
	Market       string  `json:"market"`
	MinPrice     float64 `json:"min_price"`
	ListingCount int     `json:"listing_count"`
}

type cachedSnapshot struct {
	ItemName  string          `json:"item_name"`
	Currency  string          `json:"currency"`
	Listings  []cachedListing `json:"listings"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SetSnapshot stores the latest snapshot for an item.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, snap domain.AggregatedListingSnapshot) error {
	cs := cachedSnapshot{
		ItemName:  snap.ItemName,
		Currency:  string(snap.Currency),
		FetchedAt: snap.FetchedAt,
	}
	for _, l := range snap.Listings {
		cs.Listings = append(cs.Listings, cachedListing{
			Market:       string(l.Market),
			MinPrice:     l.MinPrice,
			ListingCount: l.ListingCount,
		})
	}

	payload, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.ItemName, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(snap.ItemName), payload, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.ItemName, err)
	}
	return nil
}

// GetSnapshot retrieves the cached snapshot for an item. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context, itemName string) (domain.AggregatedListingSnapshot, error) {
	payload, err := sc.rdb.Get(ctx, snapshotKey(itemName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AggregatedListingSnapshot{}, domain.ErrNotFound
		}
		return domain.AggregatedListingSnapshot{}, fmt.Errorf("redis: get snapshot %s: %w", itemName, err)
	}

	var cs cachedSnapshot
	if err := json.Unmarshal(payload, &cs); err != nil {
		return domain.AggregatedListingSnapshot{}, fmt.Errorf("redis: decode snapshot %s: %w", itemName, err)
	}

	snap := domain.AggregatedListingSnapshot{
		ItemName:  cs.ItemName,
		Currency:  domain.Currency(cs.Currency),
		FetchedAt: cs.FetchedAt,
	}
	for _, l := range cs.Listings {
		snap.Listings = append(snap.Listings, domain.MarketListing{
			Market:       domain.Market(l.Market),
			MinPrice:     l.MinPrice,
			ListingCount: l.ListingCount,
		})
	}
	return snap, nil
}

// Invalidate removes an item's cached snapshot.
func (sc *SnapshotCache) Invalidate(ctx context.Context, itemName string) error {
	if err := sc.rdb.Del(ctx, snapshotKey(itemName)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate snapshot %s: %w", itemName, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
