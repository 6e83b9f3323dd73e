// Package alert evaluates a watchlist of price targets against current
// listing snapshots.
package alert

import (
	"sort"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// Engine checks watchlist targets against cross-market snapshots. It holds
// no state; Evaluate is a pure function over its arguments.
type Engine struct{}

// NewEngine creates an alert Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate fires one alert per watchlist item whose lowest current listing
// price is at or below its target (exactly-at-target triggers). Items whose
// snapshot holds no listings are skipped. Watchlist items with no entry in
// current are returned in missing so the caller can report them instead of
// dropping them silently.
//
// Alerts are returned in item-name order so repeated runs over identical
// input produce identical output.
func (e *Engine) Evaluate(watchlist map[string]float64, current map[string]domain.AggregatedListingSnapshot) (alerts []domain.WatchlistAlert, missing []string) {
	names := make([]string, 0, len(watchlist))
	for name := range watchlist {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	for _, name := range names {
		snap, ok := current[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		lowest, ok := snap.Lowest()
		if !ok {
			continue
		}
		target := watchlist[name]
		if lowest.MinPrice > target {
			continue
		}
		alerts = append(alerts, domain.WatchlistAlert{
			ItemName:     name,
			CurrentPrice: lowest.MinPrice,
			Market:       lowest.Market,
			TargetPrice:  target,
			Savings:      target - lowest.MinPrice,
			TriggeredAt:  now,
		})
	}
	return alerts, missing
}
