package domain

import "time"

// WatchlistAlert records a watchlist item whose lowest current price reached
// its target. Savings is non-negative by construction since alerts only fire
// when CurrentPrice <= TargetPrice.
type WatchlistAlert struct {
	ItemName     string
	CurrentPrice float64
	Market       Market
	TargetPrice  float64
	Savings      float64
	TriggeredAt  time.Time
}
