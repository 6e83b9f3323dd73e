package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. Snapshots
// are stored flattened, one row per market listing, and regrouped by
// (item_name, fetched_at) on read.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const insertSnapshotRow = `
	INSERT INTO listing_snapshots (
		item_name, currency, market, min_price, listing_count, fetched_at
	) VALUES ($1, $2, $3, $4, $5, $6)`

// InsertBatch persists a set of snapshots in a single batch. Snapshots with
// no listings are skipped since they carry no price information.
func (s *SnapshotStore) InsertBatch(ctx context.Context, snaps []domain.AggregatedListingSnapshot) error {
	batch := &pgx.Batch{}
	queued := 0
	for _, snap := range snaps {
		for _, l := range snap.Listings {
			batch.Queue(insertSnapshotRow,
				snap.ItemName, string(snap.Currency),
				string(l.Market), l.MinPrice, l.ListingCount,
				snap.FetchedAt,
			)
			queued++
		}
	}
	if queued == 0 {
		return nil
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert snapshot batch item %d: %w", i, err)
		}
	}
	return nil
}

const selectSnapshotCols = `item_name, currency, market, min_price, listing_count, fetched_at`

// ListByItem returns the most recent snapshots for an item, newest first,
// limited to the given number of ticks.
func (s *SnapshotStore) ListByItem(ctx context.Context, itemName string, limit int) ([]domain.AggregatedListingSnapshot, error) {
	query := `
		SELECT ` + selectSnapshotCols + `
		FROM listing_snapshots
		WHERE item_name = $1 AND fetched_at IN (
			SELECT DISTINCT fetched_at
			FROM listing_snapshots
			WHERE item_name = $1
			ORDER BY fetched_at DESC
			LIMIT $2
		)
		ORDER BY fetched_at DESC, market`

	rows, err := s.pool.Query(ctx, query, itemName, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots for %s: %w", itemName, err)
	}
	defer rows.Close()

	return groupSnapshotRows(rows)
}

// ListBefore returns every snapshot fetched strictly before the cutoff,
// oldest first. Used by the archiver ahead of a retention sweep.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time) ([]domain.AggregatedListingSnapshot, error) {
	query := `
		SELECT ` + selectSnapshotCols + `
		FROM listing_snapshots
		WHERE fetched_at < $1
		ORDER BY fetched_at, item_name, market`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return groupSnapshotRows(rows)
}

// DeleteBefore removes snapshot rows fetched strictly before the cutoff and
// reports how many rows were deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM listing_snapshots WHERE fetched_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// groupSnapshotRows folds flat listing rows back into snapshots. Rows are
// expected ordered so that rows of the same (item, fetched_at) are adjacent.
func groupSnapshotRows(rows pgx.Rows) ([]domain.AggregatedListingSnapshot, error) {
	var snaps []domain.AggregatedListingSnapshot
	var cur *domain.AggregatedListingSnapshot

	for rows.Next() {
		var (
			itemName, currency, market string
			minPrice                   float64
			listingCount               int
			fetchedAt                  time.Time
		)
		if err := rows.Scan(&itemName, &currency, &market, &minPrice, &listingCount, &fetchedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot row: %w", err)
		}

		if cur == nil || cur.ItemName != itemName || !cur.FetchedAt.Equal(fetchedAt) {
			snaps = append(snaps, domain.AggregatedListingSnapshot{
				ItemName:  itemName,
				Currency:  domain.Currency(currency),
				FetchedAt: fetchedAt,
			})
			cur = &snaps[len(snaps)-1]
		}
		cur.Listings = append(cur.Listings, domain.MarketListing{
			Market:       domain.Market(market),
			MinPrice:     minPrice,
			ListingCount: listingCount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: snapshot rows: %w", err)
	}
	return snaps, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
