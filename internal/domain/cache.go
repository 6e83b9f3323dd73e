package domain

import "context"

// SnapshotCache provides fast access to the most recently fetched listing
// snapshot per item.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snap AggregatedListingSnapshot) error
	// GetSnapshot returns ErrNotFound when no snapshot is cached for the item.
	GetSnapshot(ctx context.Context, itemName string) (AggregatedListingSnapshot, error)
	Invalidate(ctx context.Context, itemName string) error
}
