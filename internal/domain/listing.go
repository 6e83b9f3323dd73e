package domain

import "time"

// MarketListing is one marketplace's current offer for an item: the lowest
// listed price and the number of active listings. Produced fresh per query
// and never mutated.
type MarketListing struct {
	Market       Market
	MinPrice     float64
	ListingCount int
}

// AggregatedListingSnapshot is a point-in-time cross-market view of listings
// for a single item. A market that returned no data is simply absent from
// Listings; no two listings share the same market.
type AggregatedListingSnapshot struct {
	ItemName  string
	Currency  Currency
	Listings  []MarketListing
	FetchedAt time.Time
}

// Lowest returns the listing with the minimum price, preserving the first
// occurrence on ties. The second return is false when the snapshot holds no
// listings.
func (s AggregatedListingSnapshot) Lowest() (MarketListing, bool) {
	if len(s.Listings) == 0 {
		return MarketListing{}, false
	}
	low := s.Listings[0]
	for _, l := range s.Listings[1:] {
		if l.MinPrice < low.MinPrice {
			low = l
		}
	}
	return low, true
}

// ListingsHistoryPoint is one timestamped entry in an item's listings
// history.
type ListingsHistoryPoint struct {
	Timestamp time.Time
	Listings  []MarketListing
}

// LowestPrice returns the minimum listed price at this point in time, or
// false when no market reported a listing.
func (p ListingsHistoryPoint) LowestPrice() (float64, bool) {
	if len(p.Listings) == 0 {
		return 0, false
	}
	low := p.Listings[0].MinPrice
	for _, l := range p.Listings[1:] {
		if l.MinPrice < low {
			low = l.MinPrice
		}
	}
	return low, true
}
