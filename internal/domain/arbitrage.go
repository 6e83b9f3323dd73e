package domain

import "time"

// DefaultSellerFee is the fractional fee assumed for markets that are not
// present in a FeeSchedule. Overridable via configuration.
const DefaultSellerFee = 0.10

// FeeSchedule maps each marketplace to its fractional seller fee in [0, 1).
// It is immutable after construction; markets without an entry fall back to
// the schedule's default fee.
type FeeSchedule struct {
	fees       map[Market]float64
	defaultFee float64
}

// NewFeeSchedule builds a FeeSchedule from the given per-market fees. The
// map is copied so later mutation by the caller cannot affect the schedule.
// A negative defaultFee selects DefaultSellerFee.
func NewFeeSchedule(fees map[Market]float64, defaultFee float64) FeeSchedule {
	cp := make(map[Market]float64, len(fees))
	for m, f := range fees {
		cp[m] = f
	}
	if defaultFee < 0 {
		defaultFee = DefaultSellerFee
	}
	return FeeSchedule{fees: cp, defaultFee: defaultFee}
}

// FeeFor returns the seller fee for a market, falling back to the schedule's
// default when the market is unlisted.
func (f FeeSchedule) FeeFor(m Market) float64 {
	if fee, ok := f.fees[m]; ok {
		return fee
	}
	return f.defaultFee
}

// ArbitrageOpportunity is a profitable buy/sell market pair for one item,
// net of the seller fee. Only materialized when Profit > 0.
type ArbitrageOpportunity struct {
	ID         string
	ItemName   string
	BuyMarket  Market
	BuyPrice   float64
	SellMarket Market
	SellPrice  float64
	SellFee    float64
	Profit     float64 // SellPrice*(1-SellFee) - BuyPrice
	ROI        float64 // Profit / BuyPrice * 100
	DetectedAt time.Time
}
