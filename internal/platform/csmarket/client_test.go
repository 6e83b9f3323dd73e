package csmarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

func TestGetListingsLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("market_hash_name"); got != "Chroma 2 Case" {
			t.Errorf("market_hash_name = %q", got)
		}
		json.NewEncoder(w).Encode(listingsLatestResponse{
			MarketHashName: "Chroma 2 Case",
			Currency:       "USD",
			Listings: []wireListing{
				{Market: "CSFLOAT", MinPrice: 0.38, Listings: 120},
				{Market: "STEAMCOMMUNITY", MinPrice: 0.45, Listings: 900},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	snap, err := c.GetListingsLatest(context.Background(), "Chroma 2 Case", domain.AllMarkets(), domain.CurrencyUSD)
	if err != nil {
		t.Fatalf("GetListingsLatest: %v", err)
	}
	if snap.ItemName != "Chroma 2 Case" || snap.Currency != domain.CurrencyUSD {
		t.Errorf("snapshot header = %q %q", snap.ItemName, snap.Currency)
	}
	if len(snap.Listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(snap.Listings))
	}
	if snap.Listings[0].Market != domain.MarketCSFloat || snap.Listings[0].MinPrice != 0.38 {
		t.Errorf("listings[0] = %+v", snap.Listings[0])
	}
	if snap.Listings[1].ListingCount != 900 {
		t.Errorf("listings[1].ListingCount = %d, want 900", snap.Listings[1].ListingCount)
	}
}

func TestGetListingsLatestDropsDuplicateMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listingsLatestResponse{
			MarketHashName: "Glove Case",
			Currency:       "USD",
			Listings: []wireListing{
				{Market: "CSFLOAT", MinPrice: 1.00},
				{Market: "CSFLOAT", MinPrice: 2.00},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	snap, err := c.GetListingsLatest(context.Background(), "Glove Case", nil, domain.CurrencyUSD)
	if err != nil {
		t.Fatalf("GetListingsLatest: %v", err)
	}
	if len(snap.Listings) != 1 || snap.Listings[0].MinPrice != 1.00 {
		t.Errorf("listings = %+v, want only first CSFLOAT entry", snap.Listings)
	}
}

func TestGetSalesHistoryNullableFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// day2 CSFLOAT has volume but no prices: pointers must stay nil.
		w.Write([]byte(`{"items":[
			{"day":"2024-01-01","sales":[{"market":"CSFLOAT","volume":10,"mean_price":5.0}]},
			{"day":"2024-01-02","sales":[{"market":"CSFLOAT","volume":5}]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	start, _ := time.Parse("2006-01-02", "2024-01-01")
	end, _ := time.Parse("2006-01-02", "2024-01-31")
	recs, err := c.GetSalesHistory(context.Background(), "x", nil, start, end, domain.CurrencyUSD)
	if err != nil {
		t.Fatalf("GetSalesHistory: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	d1 := recs[0].Sales[0]
	if d1.MeanPrice == nil || *d1.MeanPrice != 5.0 || d1.MedianPrice != nil {
		t.Errorf("day1 sale = %+v, want mean 5.0 and nil median", d1)
	}
	d2 := recs[1].Sales[0]
	if d2.MeanPrice != nil || d2.MedianPrice != nil {
		t.Errorf("day2 sale = %+v, want nil prices", d2)
	}
	if d2.Volume == nil || *d2.Volume != 5 {
		t.Errorf("day2 volume = %v, want 5", d2.Volume)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrItemNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope","code":"err"}`))
		}))

		c := NewClient(srv.URL, "k")
		_, err := c.GetListingsLatest(context.Background(), "x", nil, domain.CurrencyUSD)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want errors.Is %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestGetPlayerCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("start"); got != "2024-01-01" {
			t.Errorf("start = %q", got)
		}
		w.Write([]byte(`{"items":[{"date":"2024-01-01","count":912345}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	start, _ := time.Parse("2006-01-02", "2024-01-01")
	end, _ := time.Parse("2006-01-02", "2024-01-07")
	points, err := c.GetPlayerCounts(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GetPlayerCounts: %v", err)
	}
	if len(points) != 1 || points[0].Count != 912345 {
		t.Errorf("points = %+v", points)
	}
}
