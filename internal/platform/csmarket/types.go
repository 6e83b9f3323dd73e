package csmarket

import (
	"fmt"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// --------------------------------------------------------------------------
// CSMarketAPI DTOs
// --------------------------------------------------------------------------

// errorResponse is the error envelope returned on non-2xx statuses.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// wireListing is one market's listing entry. The provider calls the listing
// count "listings".
type wireListing struct {
	Market   string  `json:"market"`
	MinPrice float64 `json:"min_price"`
	Listings int     `json:"listings"`
}

type listingsLatestResponse struct {
	MarketHashName string        `json:"market_hash_name"`
	Currency       string        `json:"currency"`
	Listings       []wireListing `json:"listings"`
}

func (r listingsLatestResponse) toDomain(fetchedAt time.Time) domain.AggregatedListingSnapshot {
	snap := domain.AggregatedListingSnapshot{
		ItemName:  r.MarketHashName,
		Currency:  domain.Currency(r.Currency),
		FetchedAt: fetchedAt,
	}
	// One listing per market: the provider guarantees this, but a duplicate
	// would break the detector's tie-break, so keep the first occurrence.
	seen := make(map[string]bool, len(r.Listings))
	for _, l := range r.Listings {
		if seen[l.Market] {
			continue
		}
		seen[l.Market] = true
		snap.Listings = append(snap.Listings, domain.MarketListing{
			Market:       domain.Market(l.Market),
			MinPrice:     l.MinPrice,
			ListingCount: l.Listings,
		})
	}
	return snap
}

// wireSale is one market's sales entry for a day. Volume and prices are
// omitted by the provider when a market had no trades, so all three decode
// into pointers.
type wireSale struct {
	Market      string   `json:"market"`
	Volume      *int     `json:"volume,omitempty"`
	MeanPrice   *float64 `json:"mean_price,omitempty"`
	MedianPrice *float64 `json:"median_price,omitempty"`
}

type wireSalesDay struct {
	Day   string     `json:"day"`
	Sales []wireSale `json:"sales"`
}

type salesHistoryResponse struct {
	Items []wireSalesDay `json:"items"`
}

func (r salesHistoryResponse) toDomain() ([]domain.DailySalesRecord, error) {
	records := make([]domain.DailySalesRecord, 0, len(r.Items))
	for _, item := range r.Items {
		day, err := time.Parse(dateFormat, item.Day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", item.Day, err)
		}
		rec := domain.DailySalesRecord{Day: day}
		for _, s := range item.Sales {
			rec.Sales = append(rec.Sales, domain.MarketSale{
				Market:      domain.Market(s.Market),
				Volume:      s.Volume,
				MeanPrice:   s.MeanPrice,
				MedianPrice: s.MedianPrice,
			})
		}
		records = append(records, rec)
	}
	return records, nil
}

type wireHistoryPoint struct {
	Timestamp string        `json:"timestamp"`
	Listings  []wireListing `json:"listings"`
}

type listingsHistoryResponse struct {
	Items []wireHistoryPoint `json:"items"`
}

func (r listingsHistoryResponse) toDomain() ([]domain.ListingsHistoryPoint, error) {
	points := make([]domain.ListingsHistoryPoint, 0, len(r.Items))
	for _, item := range r.Items {
		ts, err := time.Parse(time.RFC3339, item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", item.Timestamp, err)
		}
		p := domain.ListingsHistoryPoint{Timestamp: ts}
		for _, l := range item.Listings {
			p.Listings = append(p.Listings, domain.MarketListing{
				Market:       domain.Market(l.Market),
				MinPrice:     l.MinPrice,
				ListingCount: l.Listings,
			})
		}
		points = append(points, p)
	}
	return points, nil
}

type wirePlayerCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type playerCountsResponse struct {
	Items []wirePlayerCount `json:"items"`
}

func (r playerCountsResponse) toDomain() ([]domain.PlayerCountPoint, error) {
	points := make([]domain.PlayerCountPoint, 0, len(r.Items))
	for _, item := range r.Items {
		date, err := time.Parse(dateFormat, item.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", item.Date, err)
		}
		points = append(points, domain.PlayerCountPoint{Date: date, Count: item.Count})
	}
	return points, nil
}
