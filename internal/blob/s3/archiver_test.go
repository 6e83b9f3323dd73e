package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

type fakeWriter struct {
	puts map[string][]byte
}

func (w *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if w.puts == nil {
		w.puts = make(map[string][]byte)
	}
	w.puts[path] = b
	return nil
}

type fakeSnapshotStore struct {
	snaps []domain.AggregatedListingSnapshot
	err   error
}

func (s *fakeSnapshotStore) ListBefore(context.Context, time.Time) ([]domain.AggregatedListingSnapshot, error) {
	return s.snaps, s.err
}

type fakeOpportunityStore struct {
	opps []domain.ArbitrageOpportunity
}

func (s *fakeOpportunityStore) ListBefore(context.Context, time.Time) ([]domain.ArbitrageOpportunity, error) {
	return s.opps, nil
}

type fakeAlertStore struct {
	alerts []domain.WatchlistAlert
}

func (s *fakeAlertStore) ListBefore(context.Context, time.Time) ([]domain.WatchlistAlert, error) {
	return s.alerts, nil
}

func TestArchiveSnapshotsWritesFlattenedJSONL(t *testing.T) {
	fetched := time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshotStore{snaps: []domain.AggregatedListingSnapshot{
		{
			ItemName: "AK-47 | Redline (Field-Tested)",
			Currency: domain.CurrencyUSD,
			Listings: []domain.MarketListing{
				{Market: domain.MarketCSFloat, MinPrice: 15.20, ListingCount: 12},
				{Market: domain.MarketSkinport, MinPrice: 16.00, ListingCount: 4},
			},
			FetchedAt: fetched,
		},
	}}
	w := &fakeWriter{}
	arch := NewArchiver(w, snaps, &fakeOpportunityStore{}, &fakeAlertStore{})

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	n, err := arch.ArchiveSnapshots(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveSnapshots: %v", err)
	}
	if n != 1 {
		t.Errorf("archived count = %d, want 1", n)
	}

	body, ok := w.puts["archive/snapshots/2026-08.jsonl"]
	if !ok {
		t.Fatalf("no upload at expected path, got %v", keys(w.puts))
	}
	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("jsonl lines = %d, want one per listing (2)", len(lines))
	}
	if !strings.Contains(string(lines[0]), `"market":"CSFLOAT"`) {
		t.Errorf("first line missing market field: %s", lines[0])
	}
}

func TestArchiveOpportunitiesEmptyIsNoUpload(t *testing.T) {
	w := &fakeWriter{}
	arch := NewArchiver(w, &fakeSnapshotStore{}, &fakeOpportunityStore{}, &fakeAlertStore{})

	n, err := arch.ArchiveOpportunities(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveOpportunities: %v", err)
	}
	if n != 0 {
		t.Errorf("archived count = %d, want 0", n)
	}
	if len(w.puts) != 0 {
		t.Errorf("unexpected uploads: %v", keys(w.puts))
	}
}

func TestArchiveAlertsUploadsOneLinePerAlert(t *testing.T) {
	w := &fakeWriter{}
	alerts := &fakeAlertStore{alerts: []domain.WatchlistAlert{
		{ItemName: "Chroma 2 Case", CurrentPrice: 0.38, Market: domain.MarketSkins, TargetPrice: 0.40, Savings: 0.02, TriggeredAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ItemName: "Chroma 2 Case", CurrentPrice: 0.35, Market: domain.MarketSkins, TargetPrice: 0.40, Savings: 0.05, TriggeredAt: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)},
	}}
	arch := NewArchiver(w, &fakeSnapshotStore{}, &fakeOpportunityStore{}, alerts)

	n, err := arch.ArchiveAlerts(context.Background(), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ArchiveAlerts: %v", err)
	}
	if n != 2 {
		t.Errorf("archived count = %d, want 2", n)
	}
	body := w.puts["archive/alerts/2026-07.jsonl"]
	if got := bytes.Count(bytes.TrimSpace(body), []byte("\n")) + 1; got != 2 {
		t.Errorf("jsonl lines = %d, want 2", got)
	}
}

func TestArchiveSnapshotsQueryErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	arch := NewArchiver(&fakeWriter{}, &fakeSnapshotStore{err: boom}, &fakeOpportunityStore{}, &fakeAlertStore{})

	_, err := arch.ArchiveSnapshots(context.Background(), time.Now())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
