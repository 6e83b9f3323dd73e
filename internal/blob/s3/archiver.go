package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// ---------------------------------------------------------------------------
// Narrow store interfaces required by the archiver.
//
// The archiver only needs the time-ranged query methods it actually calls,
// not the full domain store interfaces. The Postgres stores satisfy these
// implicitly through their ListBefore methods.
// ---------------------------------------------------------------------------

// SnapshotArchiveStore provides read access to aged snapshots.
type SnapshotArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.AggregatedListingSnapshot, error)
}

// OpportunityArchiveStore provides read access to aged opportunities.
type OpportunityArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.ArbitrageOpportunity, error)
}

// AlertArchiveStore provides read access to aged alerts.
type AlertArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.WatchlistAlert, error)
}

// ArchiveImpl implements domain.Archiver by querying the domain stores for
// aged records, serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here -- that is a separate, explicit step executed after the
// archive upload has succeeded.
type ArchiveImpl struct {
	writer        domain.BlobWriter
	snapshots     SnapshotArchiveStore
	opportunities OpportunityArchiveStore
	alerts        AlertArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer domain.BlobWriter,
	snapshots SnapshotArchiveStore,
	opportunities OpportunityArchiveStore,
	alerts AlertArchiveStore,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:        writer,
		snapshots:     snapshots,
		opportunities: opportunities,
		alerts:        alerts,
	}
}

// archivedListing is the JSONL row shape for one market's listing within an
// archived snapshot. Snapshots are flattened on archive the same way the
// Postgres store flattens them.
type archivedListing struct {
	ItemName     string    `json:"item_name"`
	Currency     string    `json:"currency"`
	Market       string    `json:"market"`
	MinPrice     float64   `json:"min_price"`
	ListingCount int       `json:"listing_count"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// ArchiveSnapshots queries all snapshots before the cutoff, serializes them
// to JSONL (one line per market listing), and uploads the file to
// archive/snapshots/YYYY-MM.jsonl. Returns the count of archived snapshots.
func (a *ArchiveImpl) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	snaps, err := a.snapshots.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots query: %w", err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	var flat []archivedListing
	for _, snap := range snaps {
		for _, l := range snap.Listings {
			flat = append(flat, archivedListing{
				ItemName:     snap.ItemName,
				Currency:     string(snap.Currency),
				Market:       string(l.Market),
				MinPrice:     l.MinPrice,
				ListingCount: l.ListingCount,
				FetchedAt:    snap.FetchedAt,
			})
		}
	}

	buf, err := marshalJSONL(flat)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
	}

	path := ArchivePath("snapshots", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots upload: %w", err)
	}

	return int64(len(snaps)), nil
}

type archivedOpportunity struct {
	ID         string    `json:"id"`
	ItemName   string    `json:"item_name"`
	BuyMarket  string    `json:"buy_market"`
	BuyPrice   float64   `json:"buy_price"`
	SellMarket string    `json:"sell_market"`
	SellPrice  float64   `json:"sell_price"`
	SellFee    float64   `json:"sell_fee"`
	Profit     float64   `json:"profit"`
	ROI        float64   `json:"roi"`
	DetectedAt time.Time `json:"detected_at"`
}

// ArchiveOpportunities queries all opportunities before the cutoff,
// serializes them to JSONL, and uploads the file to
// archive/opportunities/YYYY-MM.jsonl. Returns the count of archived records.
func (a *ArchiveImpl) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opportunities.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	rows := make([]archivedOpportunity, 0, len(opps))
	for _, opp := range opps {
		rows = append(rows, archivedOpportunity{
			ID:         opp.ID,
			ItemName:   opp.ItemName,
			BuyMarket:  string(opp.BuyMarket),
			BuyPrice:   opp.BuyPrice,
			SellMarket: string(opp.SellMarket),
			SellPrice:  opp.SellPrice,
			SellFee:    opp.SellFee,
			Profit:     opp.Profit,
			ROI:        opp.ROI,
			DetectedAt: opp.DetectedAt,
		})
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities marshal: %w", err)
	}

	path := ArchivePath("opportunities", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities upload: %w", err)
	}

	return int64(len(opps)), nil
}

type archivedAlert struct {
	ItemName     string    `json:"item_name"`
	CurrentPrice float64   `json:"current_price"`
	Market       string    `json:"market"`
	TargetPrice  float64   `json:"target_price"`
	Savings      float64   `json:"savings"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

// ArchiveAlerts queries all alerts before the cutoff, serializes them to
// JSONL, and uploads the file to archive/alerts/YYYY-MM.jsonl. Returns the
// count of archived records.
func (a *ArchiveImpl) ArchiveAlerts(ctx context.Context, before time.Time) (int64, error) {
	alerts, err := a.alerts.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts query: %w", err)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	rows := make([]archivedAlert, 0, len(alerts))
	for _, al := range alerts {
		rows = append(rows, archivedAlert{
			ItemName:     al.ItemName,
			CurrentPrice: al.CurrentPrice,
			Market:       string(al.Market),
			TargetPrice:  al.TargetPrice,
			Savings:      al.Savings,
			TriggeredAt:  al.TriggeredAt,
		})
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts marshal: %w", err)
	}

	path := ArchivePath("alerts", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts upload: %w", err)
	}

	return int64(len(alerts)), nil
}

// ArchivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/snapshots/2026-08.jsonl
//	archive/opportunities/2026-08.jsonl
//	archive/alerts/2026-08.jsonl
func ArchivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ArchiveImpl)(nil)
