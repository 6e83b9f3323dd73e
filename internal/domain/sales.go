package domain

import "time"

// MarketSale is one market's sales activity for a single calendar day.
// Volume, MeanPrice, and MedianPrice are each independently optional: the
// provider omits them when a market had no trades that day. A nil field means
// "exclude from aggregation", never zero.
type MarketSale struct {
	Market      Market
	Volume      *int
	MeanPrice   *float64
	MedianPrice *float64
}

// DailySalesRecord is one calendar day's sales across all markets.
type DailySalesRecord struct {
	Day   time.Time
	Sales []MarketSale
}

// DayVolume sums the present Volume fields across the day's markets. Markets
// with absent volume contribute nothing.
func (r DailySalesRecord) DayVolume() int {
	total := 0
	for _, s := range r.Sales {
		if s.Volume != nil {
			total += *s.Volume
		}
	}
	return total
}
