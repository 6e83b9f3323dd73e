// Package tracker drives the periodic fetch/evaluate/report cycle over the
// watchlist. Each tick fetches a fresh batch of snapshots with bounded
// fan-out, runs the arbitrage detector and alert engine against that single
// batch, and hands the results to the caller's reporter. A failed fetch for
// one item never aborts the tick for the others.
package tracker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aleckhoury/skinwatch/internal/alert"
	"github.com/aleckhoury/skinwatch/internal/arbitrage"
	"github.com/aleckhoury/skinwatch/internal/domain"
)

// FetchResult is the outcome of one item's provider query within a tick.
type FetchResult struct {
	ItemName string
	Snapshot domain.AggregatedListingSnapshot
	Err      error
}

// TickReport bundles everything one tick produced. All prices inside a
// report come from the same fetch batch.
type TickReport struct {
	At            time.Time
	Results       []FetchResult
	Alerts        []domain.WatchlistAlert
	Missing       []string
	Opportunities []domain.ArbitrageOpportunity
}

// ReportFunc receives each tick's results. It runs synchronously inside the
// tick, so the next tick cannot start until it returns.
type ReportFunc func(ctx context.Context, report TickReport)

// Config holds the tracker's static inputs. All fields are read-only after
// New.
type Config struct {
	// Watchlist maps item names to target prices for alerting.
	Watchlist map[string]float64
	// Markets to query; empty means all supported markets.
	Markets  []domain.Market
	Currency domain.Currency
	// Interval between ticks.
	Interval time.Duration
	// MaxInFlight caps concurrent provider queries per tick.
	MaxInFlight int
	// TopK truncates the per-item opportunity list; <= 0 keeps all.
	TopK int
}

// Tracker is the polling scheduler.
type Tracker struct {
	provider domain.MarketDataProvider
	detector *arbitrage.Detector
	engine   *alert.Engine
	report   ReportFunc
	clock    Clock
	cfg      Config
	items    []string
	logger   *slog.Logger
}

// New creates a Tracker. A nil clock selects the real clock; a nil report
// function discards tick results.
func New(provider domain.MarketDataProvider, detector *arbitrage.Detector, engine *alert.Engine, report ReportFunc, clock Clock, cfg Config, logger *slog.Logger) *Tracker {
	if clock == nil {
		clock = RealClock()
	}
	if report == nil {
		report = func(context.Context, TickReport) {}
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 8
	}
	if len(cfg.Markets) == 0 {
		cfg.Markets = domain.AllMarkets()
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.CurrencyUSD
	}

	items := make([]string, 0, len(cfg.Watchlist))
	for name := range cfg.Watchlist {
		items = append(items, name)
	}
	sort.Strings(items)

	return &Tracker{
		provider: provider,
		detector: detector,
		engine:   engine,
		report:   report,
		clock:    clock,
		cfg:      cfg,
		items:    items,
		logger:   logger.With(slog.String("component", "tracker")),
	}
}

// Run executes the polling loop until ctx is cancelled. The first tick runs
// immediately; ticks never overlap because each one completes inline before
// the loop selects again.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("tracker started",
		slog.Int("items", len(t.items)),
		slog.Duration("interval", t.cfg.Interval),
		slog.Int("max_in_flight", t.cfg.MaxInFlight),
	)
	defer t.logger.Info("tracker stopped")

	t.tick(ctx)

	ticker := t.clock.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.tick(ctx)
		}
	}
}

// tick runs one fetch/evaluate/report cycle.
func (t *Tracker) tick(ctx context.Context) {
	started := t.clock.Now()
	results := t.fetchAll(ctx)

	current := make(map[string]domain.AggregatedListingSnapshot, len(results))
	for _, res := range results {
		if res.Err != nil {
			t.logger.Warn("item fetch failed",
				slog.String("item", res.ItemName),
				slog.String("error", res.Err.Error()),
			)
			continue
		}
		current[res.ItemName] = res.Snapshot
	}

	alerts, missing := t.engine.Evaluate(t.cfg.Watchlist, current)

	var opps []domain.ArbitrageOpportunity
	for _, name := range t.items {
		snap, ok := current[name]
		if !ok {
			continue
		}
		opps = append(opps, t.detector.Detect(snap, t.cfg.TopK)...)
	}

	t.logger.Info("tick complete",
		slog.Int("fetched", len(current)),
		slog.Int("failed", len(results)-len(current)),
		slog.Int("alerts", len(alerts)),
		slog.Int("opportunities", len(opps)),
		slog.Duration("took", t.clock.Now().Sub(started)),
	)

	t.report(ctx, TickReport{
		At:            started,
		Results:       results,
		Alerts:        alerts,
		Missing:       missing,
		Opportunities: opps,
	})
}

// fetchAll queries the provider for every watchlist item with bounded
// concurrency. Per-item errors are captured in the result slice; the batch
// itself never fails.
func (t *Tracker) fetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, len(t.items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.MaxInFlight)
	for i, name := range t.items {
		i, name := i, name
		g.Go(func() error {
			snap, err := t.provider.GetListingsLatest(gctx, name, t.cfg.Markets, t.cfg.Currency)
			results[i] = FetchResult{ItemName: name, Snapshot: snap, Err: err}
			return nil
		})
	}
	// Goroutines only record errors, so Wait cannot fail.
	_ = g.Wait()

	return results
}
