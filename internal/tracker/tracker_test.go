package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aleckhoury/skinwatch/internal/alert"
	"github.com/aleckhoury/skinwatch/internal/arbitrage"
	"github.com/aleckhoury/skinwatch/internal/domain"
)

// fakeClock drives the tracker loop with a hand-fed tick channel.
type fakeClock struct {
	now   time.Time
	ticks chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		ticks: make(chan time.Time),
	}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) NewTicker(time.Duration) Ticker { return fakeTicker{ch: f.ticks} }

type fakeTicker struct {
	ch chan time.Time
}

func (t fakeTicker) C() <-chan time.Time { return t.ch }

func (fakeTicker) Stop() {}

// fakeProvider serves canned snapshots and errors per item, counting calls.
type fakeProvider struct {
	mu    sync.Mutex
	snaps map[string]domain.AggregatedListingSnapshot
	errs  map[string]error
	calls map[string]int
}

func (p *fakeProvider) GetListingsLatest(ctx context.Context, item string, markets []domain.Market, cur domain.Currency) (domain.AggregatedListingSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[item]++
	if err := p.errs[item]; err != nil {
		return domain.AggregatedListingSnapshot{}, err
	}
	return p.snaps[item], nil
}

func (p *fakeProvider) GetSalesHistory(context.Context, string, []domain.Market, time.Time, time.Time, domain.Currency) ([]domain.DailySalesRecord, error) {
	return nil, nil
}

func (p *fakeProvider) GetListingsHistory(context.Context, string, []domain.Market, domain.Currency) ([]domain.ListingsHistoryPoint, error) {
	return nil, nil
}

func (p *fakeProvider) GetPlayerCounts(context.Context, time.Time, time.Time) ([]domain.PlayerCountPoint, error) {
	return nil, nil
}

func listingSnap(item string, prices map[domain.Market]float64) domain.AggregatedListingSnapshot {
	snap := domain.AggregatedListingSnapshot{ItemName: item, Currency: domain.CurrencyUSD}
	for _, m := range domain.AllMarkets() {
		if p, ok := prices[m]; ok {
			snap.Listings = append(snap.Listings, domain.MarketListing{Market: m, MinPrice: p})
		}
	}
	return snap
}

func newTestTracker(p domain.MarketDataProvider, report ReportFunc, clock Clock, watch map[string]float64) *Tracker {
	fees := domain.NewFeeSchedule(map[domain.Market]float64{
		domain.MarketSteamCommunity: 0.15,
		domain.MarketCSFloat:        0.02,
	}, -1)
	return New(
		p,
		arbitrage.NewDetector(fees),
		alert.NewEngine(),
		report,
		clock,
		Config{Watchlist: watch, Interval: 5 * time.Minute, TopK: 3},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func runUntilReports(t *testing.T, tr *Tracker, clock *fakeClock, extraTicks int, reports <-chan TickReport) []TickReport {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	var got []TickReport
	// Immediate first tick.
	select {
	case rep := <-reports:
		got = append(got, rep)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first tick")
	}
	for i := 0; i < extraTicks; i++ {
		clock.ticks <- clock.now
		select {
		case rep := <-reports:
			got = append(got, rep)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for tick %d", i+2)
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not stop after cancellation")
	}
	return got
}

func TestRunFirstTickImmediate(t *testing.T) {
	p := &fakeProvider{snaps: map[string]domain.AggregatedListingSnapshot{
		"Chroma 2 Case": listingSnap("Chroma 2 Case", map[domain.Market]float64{
			domain.MarketCSFloat: 0.38,
		}),
	}}
	clock := newFakeClock()
	reports := make(chan TickReport, 4)
	tr := newTestTracker(p, func(_ context.Context, r TickReport) { reports <- r }, clock,
		map[string]float64{"Chroma 2 Case": 0.40})

	got := runUntilReports(t, tr, clock, 0, reports)
	if len(got) != 1 {
		t.Fatalf("reports = %d, want 1", len(got))
	}
	if len(got[0].Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 (0.38 <= 0.40)", len(got[0].Alerts))
	}
}

func TestPerItemFailureIsolated(t *testing.T) {
	p := &fakeProvider{
		snaps: map[string]domain.AggregatedListingSnapshot{
			"Good Item": listingSnap("Good Item", map[domain.Market]float64{
				domain.MarketCSFloat:        9.00,
				domain.MarketSteamCommunity: 12.00,
			}),
		},
		errs: map[string]error{"Bad Item": domain.ErrRateLimited},
	}
	clock := newFakeClock()
	reports := make(chan TickReport, 4)
	tr := newTestTracker(p, func(_ context.Context, r TickReport) { reports <- r }, clock,
		map[string]float64{"Good Item": 100.00, "Bad Item": 1.00})

	got := runUntilReports(t, tr, clock, 0, reports)
	rep := got[0]

	var failed, succeeded int
	for _, res := range rep.Results {
		if res.Err != nil {
			failed++
			if !errors.Is(res.Err, domain.ErrRateLimited) {
				t.Errorf("unexpected error: %v", res.Err)
			}
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Errorf("failed/succeeded = %d/%d, want 1/1", failed, succeeded)
	}
	// The failed item is reported missing, not alerted.
	if len(rep.Missing) != 1 || rep.Missing[0] != "Bad Item" {
		t.Errorf("Missing = %v, want [Bad Item]", rep.Missing)
	}
	// The good item still produced an alert and an arbitrage opportunity.
	if len(rep.Alerts) != 1 {
		t.Errorf("alerts = %d, want 1", len(rep.Alerts))
	}
	if len(rep.Opportunities) != 1 {
		t.Errorf("opportunities = %d, want 1", len(rep.Opportunities))
	}
}

func TestTickerDrivesSubsequentTicks(t *testing.T) {
	p := &fakeProvider{snaps: map[string]domain.AggregatedListingSnapshot{
		"Glove Case": listingSnap("Glove Case", map[domain.Market]float64{domain.MarketCSFloat: 1.50}),
	}}
	clock := newFakeClock()
	reports := make(chan TickReport, 8)
	tr := newTestTracker(p, func(_ context.Context, r TickReport) { reports <- r }, clock,
		map[string]float64{"Glove Case": 1.00})

	got := runUntilReports(t, tr, clock, 2, reports)
	if len(got) != 3 {
		t.Fatalf("reports = %d, want 3 (immediate + 2 ticks)", len(got))
	}
	p.mu.Lock()
	calls := p.calls["Glove Case"]
	p.mu.Unlock()
	if calls != 3 {
		t.Errorf("provider calls = %d, want 3", calls)
	}
}

func TestCancellationStopsPromptly(t *testing.T) {
	p := &fakeProvider{snaps: map[string]domain.AggregatedListingSnapshot{}}
	clock := newFakeClock()
	tr := newTestTracker(p, nil, clock, map[string]float64{"X": 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	// Let the immediate tick finish, then cancel while the loop is sleeping.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tracker blocked after cancellation")
	}
}
