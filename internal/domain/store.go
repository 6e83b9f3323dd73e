package domain

import (
	"context"
	"time"
)

// SnapshotStore persists per-tick listing snapshots.
type SnapshotStore interface {
	InsertBatch(ctx context.Context, snaps []AggregatedListingSnapshot) error
	ListByItem(ctx context.Context, itemName string, limit int) ([]AggregatedListingSnapshot, error)
	ListBefore(ctx context.Context, before time.Time) ([]AggregatedListingSnapshot, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp ArbitrageOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
	ListBefore(ctx context.Context, before time.Time) ([]ArbitrageOpportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertStore persists triggered watchlist alerts.
type AlertStore interface {
	Insert(ctx context.Context, alert WatchlistAlert) error
	ListRecent(ctx context.Context, limit int) ([]WatchlistAlert, error)
	ListBefore(ctx context.Context, before time.Time) ([]WatchlistAlert, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
