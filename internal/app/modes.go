package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aleckhoury/skinwatch/internal/alert"
	s3blob "github.com/aleckhoury/skinwatch/internal/blob/s3"
	"github.com/aleckhoury/skinwatch/internal/arbitrage"
	"github.com/aleckhoury/skinwatch/internal/domain"
	"github.com/aleckhoury/skinwatch/internal/notify"
	"github.com/aleckhoury/skinwatch/internal/stats"
	"github.com/aleckhoury/skinwatch/internal/tracker"
)

// Notification event types, filterable via notify.events in config.
const (
	eventAlertTriggered = "alert_triggered"
	eventArbDetected    = "arb_detected"
	eventItemError      = "item_error"
)

// MonitorMode runs the polling tracker until the context is cancelled. Each
// tick's results are persisted, cached, published, and notified according to
// which subsystems are wired.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode",
		slog.Int("watchlist", len(a.cfg.Watchlist)),
		slog.Duration("interval", a.cfg.Tracker.Interval.Duration),
	)

	return a.newTracker(deps).Run(ctx)
}

// AnalyzeMode runs a one-shot historical analysis over the configured items
// and exits. For each item it aggregates the sales history window and, when
// enabled, correlates daily volume against concurrent player counts.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(a.cfg.Analyze.Days - 1))

	a.logger.InfoContext(ctx, "starting analysis",
		slog.Int("items", len(a.cfg.Analyze.Items)),
		slog.Time("start", start),
		slog.Time("end", end),
	)

	var counts []domain.PlayerCountPoint
	if a.cfg.Analyze.PlayerCounts {
		var err error
		counts, err = deps.Provider.GetPlayerCounts(ctx, start, end)
		if err != nil {
			a.logger.WarnContext(ctx, "player counts unavailable, skipping correlation",
				slog.String("error", err.Error()),
			)
		}
	}

	markets := a.cfg.Markets()
	currency := domain.Currency(a.cfg.Provider.Currency)

	for _, item := range a.cfg.Analyze.Items {
		history, err := deps.Provider.GetSalesHistory(ctx, item, markets, start, end, currency)
		if err != nil {
			a.logger.ErrorContext(ctx, "sales history fetch failed",
				slog.String("item", item),
				slog.String("error", err.Error()),
			)
			continue
		}

		st := stats.Aggregate(history)
		if st == nil {
			a.logger.InfoContext(ctx, "no sales recorded in window",
				slog.String("item", item),
			)
			continue
		}

		a.logger.InfoContext(ctx, "price statistics",
			slog.String("item", item),
			slog.Float64("min_price", st.MinPrice),
			slog.Float64("max_price", st.MaxPrice),
			slog.Float64("avg_price", st.AvgPrice),
			slog.Int("total_volume", st.TotalVolume),
			slog.Float64("avg_daily_volume", st.AvgDailyVolume),
			slog.Int("days_tracked", st.DaysTracked),
		)

		if len(counts) > 0 {
			for _, pt := range stats.CorrelateVolume(history, counts) {
				attrs := []any{
					slog.String("item", item),
					slog.Time("date", pt.Date),
					slog.Int("volume", pt.Volume),
				}
				if pt.HasPlayers {
					attrs = append(attrs, slog.Int("players", pt.Players))
				}
				a.logger.InfoContext(ctx, "volume correlation", attrs...)
			}
		}
	}

	return nil
}

// FullMode runs the monitor tracker together with the retention sweeper when
// cold storage is wired.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.newTracker(deps).Run(ctx)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runRetention(ctx, deps)
		})
	}

	return g.Wait()
}

// newTracker assembles the tracker from config plus a reporter that fans the
// tick results out to the wired subsystems.
func (a *App) newTracker(deps *Dependencies) *tracker.Tracker {
	detector := arbitrage.NewDetector(a.cfg.FeeSchedule())
	engine := alert.NewEngine()

	return tracker.New(
		deps.Provider,
		detector,
		engine,
		a.reportTick(deps),
		nil,
		tracker.Config{
			Watchlist:   a.cfg.WatchlistMap(),
			Markets:     a.cfg.Markets(),
			Currency:    domain.Currency(a.cfg.Provider.Currency),
			Interval:    a.cfg.Tracker.Interval.Duration,
			MaxInFlight: a.cfg.Tracker.MaxInFlight,
			TopK:        a.cfg.Tracker.TopK,
		},
		a.logger,
	)
}

// reportTick builds the per-tick reporter. Downstream failures are logged and
// never abort the tick; the next poll simply runs on schedule.
func (a *App) reportTick(deps *Dependencies) tracker.ReportFunc {
	return func(ctx context.Context, report tracker.TickReport) {
		var snaps []domain.AggregatedListingSnapshot
		for _, res := range report.Results {
			if res.Err == nil {
				snaps = append(snaps, res.Snapshot)
			}
		}

		if deps.SnapshotStore != nil && len(snaps) > 0 {
			if err := deps.SnapshotStore.InsertBatch(ctx, snaps); err != nil {
				a.logger.ErrorContext(ctx, "snapshot persistence failed",
					slog.String("error", err.Error()),
				)
			}
		}

		if deps.SnapshotCache != nil {
			for _, snap := range snaps {
				if err := deps.SnapshotCache.SetSnapshot(ctx, snap); err != nil {
					a.logger.WarnContext(ctx, "snapshot cache write failed",
						slog.String("item", snap.ItemName),
						slog.String("error", err.Error()),
					)
				}
			}
		}

		for _, al := range report.Alerts {
			if deps.AlertStore != nil {
				if err := deps.AlertStore.Insert(ctx, al); err != nil {
					a.logger.ErrorContext(ctx, "alert persistence failed",
						slog.String("item", al.ItemName),
						slog.String("error", err.Error()),
					)
				}
			}
			if deps.Publisher != nil {
				if err := deps.Publisher.PublishAlert(ctx, al); err != nil {
					a.logger.WarnContext(ctx, "alert publish failed",
						slog.String("item", al.ItemName),
						slog.String("error", err.Error()),
					)
				}
			}
			title, msg := notify.FormatAlert(al)
			if err := deps.Notifier.Notify(ctx, eventAlertTriggered, title, msg); err != nil {
				a.logger.WarnContext(ctx, "alert notification failed",
					slog.String("item", al.ItemName),
					slog.String("error", err.Error()),
				)
			}
		}

		byItem := make(map[string][]domain.ArbitrageOpportunity)
		var itemOrder []string
		for _, opp := range report.Opportunities {
			if deps.OpportunityStore != nil {
				if err := deps.OpportunityStore.Insert(ctx, opp); err != nil {
					a.logger.ErrorContext(ctx, "opportunity persistence failed",
						slog.String("id", opp.ID),
						slog.String("error", err.Error()),
					)
				}
			}
			if deps.Publisher != nil {
				if err := deps.Publisher.PublishOpportunity(ctx, opp); err != nil {
					a.logger.WarnContext(ctx, "opportunity publish failed",
						slog.String("id", opp.ID),
						slog.String("error", err.Error()),
					)
				}
			}
			if _, seen := byItem[opp.ItemName]; !seen {
				itemOrder = append(itemOrder, opp.ItemName)
			}
			byItem[opp.ItemName] = append(byItem[opp.ItemName], opp)
		}
		for _, item := range itemOrder {
			title, msg := notify.FormatOpportunities(item, byItem[item])
			if err := deps.Notifier.Notify(ctx, eventArbDetected, title, msg); err != nil {
				a.logger.WarnContext(ctx, "opportunity notification failed",
					slog.String("item", item),
					slog.String("error", err.Error()),
				)
			}
		}

		if len(report.Missing) > 0 {
			details := a.describeMissing(ctx, deps, report)
			msg := fmt.Sprintf("no data this tick: %s", strings.Join(details, ", "))
			if err := deps.Notifier.Notify(ctx, eventItemError, "Watchlist items missing", msg); err != nil {
				a.logger.WarnContext(ctx, "missing-item notification failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// describeMissing annotates missing watchlist items with their last cached
// price when one is available. Items the provider no longer knows are
// evicted from the cache so a stale price cannot resurface.
func (a *App) describeMissing(ctx context.Context, deps *Dependencies, report tracker.TickReport) []string {
	errByItem := make(map[string]error, len(report.Results))
	for _, res := range report.Results {
		errByItem[res.ItemName] = res.Err
	}

	details := make([]string, 0, len(report.Missing))
	for _, item := range report.Missing {
		if deps.SnapshotCache == nil {
			details = append(details, item)
			continue
		}

		if errors.Is(errByItem[item], domain.ErrItemNotFound) {
			if err := deps.SnapshotCache.Invalidate(ctx, item); err != nil {
				a.logger.WarnContext(ctx, "snapshot cache invalidation failed",
					slog.String("item", item),
					slog.String("error", err.Error()),
				)
			}
			details = append(details, item+" (unknown to provider)")
			continue
		}

		snap, err := deps.SnapshotCache.GetSnapshot(ctx, item)
		if err == nil {
			if low, ok := snap.Lowest(); ok {
				details = append(details, fmt.Sprintf("%s (last seen $%.2f on %s)", item, low.MinPrice, low.Market))
				continue
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			a.logger.WarnContext(ctx, "snapshot cache read failed",
				slog.String("item", item),
				slog.String("error", err.Error()),
			)
		}
		details = append(details, item)
	}
	return details
}

// runRetention periodically archives aged rows to cold storage and deletes
// them from the primary store. Deletion only happens after a successful
// archive of the same table.
func (a *App) runRetention(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Retention.SweepInterval.Duration

	a.logger.InfoContext(ctx, "retention sweeper started",
		slog.Int("retention_days", a.cfg.Retention.Days),
		slog.Duration("sweep_interval", interval),
	)

	a.sweep(ctx, deps)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.sweep(ctx, deps)
		}
	}
}

// sweep runs one archive-then-delete pass over every table.
func (a *App) sweep(ctx context.Context, deps *Dependencies) {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Retention.Days)

	type table struct {
		name    string
		archive func(context.Context, time.Time) (int64, error)
		purge   func(context.Context, time.Time) (int64, error)
	}
	tables := []table{
		{"snapshots", deps.Archiver.ArchiveSnapshots, deps.SnapshotStore.DeleteBefore},
		{"opportunities", deps.Archiver.ArchiveOpportunities, deps.OpportunityStore.DeleteBefore},
		{"alerts", deps.Archiver.ArchiveAlerts, deps.AlertStore.DeleteBefore},
	}

	for _, t := range tables {
		archived, err := t.archive(ctx, cutoff)
		if err != nil {
			a.logger.ErrorContext(ctx, "archive failed",
				slog.String("table", t.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if archived == 0 {
			continue
		}

		// Only purge rows whose archive object is confirmed present.
		path := s3blob.ArchivePath(t.name, cutoff)
		exists, err := deps.BlobReader.Exists(ctx, path)
		if err != nil {
			a.logger.ErrorContext(ctx, "archive verification failed, skipping purge",
				slog.String("table", t.name),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !exists {
			a.logger.ErrorContext(ctx, "archive object missing, skipping purge",
				slog.String("table", t.name),
				slog.String("path", path),
			)
			continue
		}

		deleted, err := t.purge(ctx, cutoff)
		if err != nil {
			a.logger.ErrorContext(ctx, "purge after archive failed",
				slog.String("table", t.name),
				slog.String("error", err.Error()),
			)
			continue
		}

		a.logger.InfoContext(ctx, "retention sweep complete",
			slog.String("table", t.name),
			slog.Int64("archived", archived),
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
}
