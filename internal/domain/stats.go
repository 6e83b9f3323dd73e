package domain

import "time"

// PriceStats summarizes an item's sales history over a date range.
// MinPrice <= AvgPrice <= MaxPrice holds for every value produced by the
// aggregator since all three derive from the same sample set.
type PriceStats struct {
	MinPrice       float64
	MaxPrice       float64
	AvgPrice       float64
	TotalVolume    int
	AvgDailyVolume float64
	DaysTracked    int
}

// PlayerCountPoint is one day's concurrent player count.
type PlayerCountPoint struct {
	Date  time.Time
	Count int
}

// VolumeCorrelationPoint aligns one day's trade volume with the player count
// observed on the same date. HasPlayers is false when no count was reported
// for that day.
type VolumeCorrelationPoint struct {
	Date       time.Time
	Volume     int
	Players    int
	HasPlayers bool
}
