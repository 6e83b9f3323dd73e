// Package arbitrage finds profitable cross-market buy/sell pairs in listing
// snapshots, net of per-market seller fees.
package arbitrage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// Detector scans cross-market snapshots for arbitrage opportunities. It is
// stateless apart from the immutable fee schedule, so a single Detector is
// safe for concurrent use.
type Detector struct {
	fees domain.FeeSchedule
}

// NewDetector creates a Detector using the given fee schedule.
func NewDetector(fees domain.FeeSchedule) *Detector {
	return &Detector{fees: fees}
}

// Detect returns profitable opportunities for one snapshot, ordered by ROI
// descending with ties broken by the lower sell price. The listing with the
// globally lowest price is the sole buy candidate; ties keep the first
// occurrence from the provider's response order. topK <= 0 means no
// truncation.
//
// A snapshot with fewer than two listings yields no opportunities, as does a
// buy candidate priced at zero (free listings are treated as provider noise,
// not an infinite-ROI trade).
func (d *Detector) Detect(snap domain.AggregatedListingSnapshot, topK int) []domain.ArbitrageOpportunity {
	if len(snap.Listings) < 2 {
		return nil
	}

	sorted := make([]domain.MarketListing, len(snap.Listings))
	copy(sorted, snap.Listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPrice < sorted[j].MinPrice
	})

	buy := sorted[0]
	if buy.MinPrice <= 0 {
		return nil
	}

	now := time.Now().UTC()
	var opps []domain.ArbitrageOpportunity
	for _, sell := range sorted[1:] {
		fee := d.fees.FeeFor(sell.Market)
		profit := sell.MinPrice*(1-fee) - buy.MinPrice
		if profit <= 0 {
			continue
		}
		opps = append(opps, domain.ArbitrageOpportunity{
			ID:         uuid.Must(uuid.NewRandom()).String(),
			ItemName:   snap.ItemName,
			BuyMarket:  buy.Market,
			BuyPrice:   buy.MinPrice,
			SellMarket: sell.Market,
			SellPrice:  sell.MinPrice,
			SellFee:    fee,
			Profit:     profit,
			ROI:        profit / buy.MinPrice * 100,
			DetectedAt: now,
		})
	}

	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ROI != opps[j].ROI {
			return opps[i].ROI > opps[j].ROI
		}
		return opps[i].SellPrice < opps[j].SellPrice
	})

	if topK > 0 && len(opps) > topK {
		opps = opps[:topK]
	}
	return opps
}
