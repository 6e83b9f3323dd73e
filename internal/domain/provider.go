package domain

import (
	"context"
	"time"
)

// MarketDataProvider is the external market-data source. All calls are
// GET-style and idempotent; transient-failure retries are the provider
// client's concern. Unrecovered failures surface as per-item errors to the
// caller.
type MarketDataProvider interface {
	// GetListingsLatest returns the current cross-market listings for an item.
	GetListingsLatest(ctx context.Context, itemName string, markets []Market, currency Currency) (AggregatedListingSnapshot, error)

	// GetSalesHistory returns per-day sales records for an item over the
	// inclusive [start, end] date range, ordered by day.
	GetSalesHistory(ctx context.Context, itemName string, markets []Market, start, end time.Time, currency Currency) ([]DailySalesRecord, error)

	// GetListingsHistory returns timestamped historical listing snapshots for
	// an item, ordered by timestamp.
	GetListingsHistory(ctx context.Context, itemName string, markets []Market, currency Currency) ([]ListingsHistoryPoint, error)

	// GetPlayerCounts returns daily concurrent player counts over the
	// inclusive [start, end] date range.
	GetPlayerCounts(ctx context.Context, start, end time.Time) ([]PlayerCountPoint, error)
}
