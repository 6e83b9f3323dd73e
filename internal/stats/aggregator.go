// Package stats reduces sales-history records into summary statistics. All
// functions are pure: no I/O, no mutation of inputs, deterministic output.
package stats

import (
	"github.com/aleckhoury/skinwatch/internal/domain"
)

// Aggregate summarizes a sequence of daily sales records. For each day it
// sums the present volume fields; for each market-sale it samples the mean
// price, falling back to the median price, and skips the sale when both are
// absent. A nil result means no price samples existed in the range -- an
// expected outcome, not an error.
func Aggregate(history []domain.DailySalesRecord) *domain.PriceStats {
	if len(history) == 0 {
		return nil
	}

	totalVolume := 0
	var samples []float64
	for _, day := range history {
		totalVolume += day.DayVolume()
		for _, sale := range day.Sales {
			switch {
			case sale.MeanPrice != nil:
				samples = append(samples, *sale.MeanPrice)
			case sale.MedianPrice != nil:
				samples = append(samples, *sale.MedianPrice)
			}
		}
	}

	if len(samples) == 0 {
		return nil
	}

	minP, maxP, sum := samples[0], samples[0], 0.0
	for _, p := range samples {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
		sum += p
	}

	return &domain.PriceStats{
		MinPrice:       minP,
		MaxPrice:       maxP,
		AvgPrice:       sum / float64(len(samples)),
		TotalVolume:    totalVolume,
		AvgDailyVolume: float64(totalVolume) / float64(len(history)),
		DaysTracked:    len(history),
	}
}

// CorrelateVolume aligns daily trade volume with player counts by date.
// Days without a matching player count are included with HasPlayers false so
// callers can render gaps rather than fabricate values.
func CorrelateVolume(history []domain.DailySalesRecord, counts []domain.PlayerCountPoint) []domain.VolumeCorrelationPoint {
	byDate := make(map[string]int, len(counts))
	for _, c := range counts {
		byDate[c.Date.Format("2006-01-02")] = c.Count
	}

	points := make([]domain.VolumeCorrelationPoint, 0, len(history))
	for _, day := range history {
		p := domain.VolumeCorrelationPoint{
			Date:   day.Day,
			Volume: day.DayVolume(),
		}
		if n, ok := byDate[day.Day.Format("2006-01-02")]; ok {
			p.Players = n
			p.HasPlayers = true
		}
		points = append(points, p)
	}
	return points
}
