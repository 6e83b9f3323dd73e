package arbitrage

import (
	"math"
	"testing"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

var testFees = domain.NewFeeSchedule(map[domain.Market]float64{
	domain.MarketSteamCommunity: 0.15,
	domain.MarketCSFloat:        0.02,
	domain.MarketSkinport:       0.08,
}, -1)

func snap(listings ...domain.MarketListing) domain.AggregatedListingSnapshot {
	return domain.AggregatedListingSnapshot{
		ItemName: "AK-47 | Redline (Field-Tested)",
		Currency: domain.CurrencyUSD,
		Listings: listings,
	}
}

func TestDetectUnprofitableAfterFees(t *testing.T) {
	// Buy CSFloat $9.00, sell Steam $10.00 net $8.50 -> loss, no opportunity.
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 10.00},
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 9.00},
	), 0)
	if len(got) != 0 {
		t.Fatalf("Detect = %d opportunities, want none", len(got))
	}
}

func TestDetectProfitable(t *testing.T) {
	// Buy CSFloat $9.00, sell Steam $12.00 net $10.20 -> profit $1.20.
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 9.00},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 12.00},
	), 0)
	if len(got) != 1 {
		t.Fatalf("Detect = %d opportunities, want 1", len(got))
	}
	opp := got[0]
	if opp.BuyMarket != domain.MarketCSFloat || opp.SellMarket != domain.MarketSteamCommunity {
		t.Errorf("pair = %s -> %s, want CSFLOAT -> STEAMCOMMUNITY", opp.BuyMarket, opp.SellMarket)
	}
	if math.Abs(opp.Profit-1.20) > 1e-9 {
		t.Errorf("Profit = %v, want 1.20", opp.Profit)
	}
	if math.Abs(opp.ROI-1.20/9.00*100) > 1e-9 {
		t.Errorf("ROI = %v, want %v", opp.ROI, 1.20/9.00*100)
	}
}

func TestDetectSingleListing(t *testing.T) {
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 9.00},
	), 0)
	if got != nil {
		t.Fatalf("Detect = %v, want nil for single listing", got)
	}
}

func TestDetectZeroPriceBuyCandidate(t *testing.T) {
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 0},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 12.00},
	), 0)
	if got != nil {
		t.Fatalf("Detect = %v, want nil when cheapest listing is free", got)
	}
}

func TestDetectDefaultFeeForUnlistedMarket(t *testing.T) {
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 10.00},
		// CSDEALS is not in the schedule: default 0.10 applies.
		domain.MarketListing{Market: domain.MarketCSDeals, MinPrice: 12.00},
	), 0)
	if len(got) != 1 {
		t.Fatalf("Detect = %d opportunities, want 1", len(got))
	}
	if math.Abs(got[0].SellFee-domain.DefaultSellerFee) > 1e-9 {
		t.Errorf("SellFee = %v, want default %v", got[0].SellFee, domain.DefaultSellerFee)
	}
	if math.Abs(got[0].Profit-(12.00*0.90-10.00)) > 1e-9 {
		t.Errorf("Profit = %v, want 0.80", got[0].Profit)
	}
}

func TestDetectRankingAndInvariants(t *testing.T) {
	d := NewDetector(testFees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 10.00},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 20.00}, // net 17.00, roi 70%
		domain.MarketListing{Market: domain.MarketSkinport, MinPrice: 13.00},       // net 11.96, roi 19.6%
		domain.MarketListing{Market: domain.MarketCSDeals, MinPrice: 10.50},        // net 9.45, loss
	), 0)
	if len(got) != 2 {
		t.Fatalf("Detect = %d opportunities, want 2", len(got))
	}
	for i, opp := range got {
		if opp.Profit <= 0 {
			t.Errorf("opp[%d].Profit = %v, want > 0", i, opp.Profit)
		}
		if opp.BuyMarket == opp.SellMarket {
			t.Errorf("opp[%d] buys and sells on %s", i, opp.BuyMarket)
		}
		if opp.BuyPrice != 10.00 {
			t.Errorf("opp[%d].BuyPrice = %v, want global minimum 10.00", i, opp.BuyPrice)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].ROI > got[i-1].ROI {
			t.Errorf("ROI not non-increasing at %d: %v > %v", i, got[i].ROI, got[i-1].ROI)
		}
	}
}

func TestDetectROITieBreakLowerSellPriceFirst(t *testing.T) {
	// Different sell prices with fees tuned so both pairs net exactly 18.00:
	// identical ROI, so ordering must favor the lower (less risky) sell price.
	fees := domain.NewFeeSchedule(map[domain.Market]float64{
		domain.MarketWhiteMarket: 0.10, // 20.00 * 0.90 = 18.00
		domain.MarketSkins:       0.00, // 18.00 * 1.00 = 18.00
	}, -1)
	d := NewDetector(fees)
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 10.00},
		domain.MarketListing{Market: domain.MarketWhiteMarket, MinPrice: 20.00},
		domain.MarketListing{Market: domain.MarketSkins, MinPrice: 18.00},
	), 0)
	if len(got) != 2 {
		t.Fatalf("Detect = %d opportunities, want 2", len(got))
	}
	if math.Abs(got[0].ROI-got[1].ROI) > 1e-9 {
		t.Fatalf("expected ROI tie, got %v and %v", got[0].ROI, got[1].ROI)
	}
	if got[0].SellPrice > got[1].SellPrice {
		t.Errorf("tie-break order wrong: %v before %v", got[0].SellPrice, got[1].SellPrice)
	}
}

func TestDetectTopKTruncation(t *testing.T) {
	d := NewDetector(domain.NewFeeSchedule(nil, 0.0))
	s := snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 1.00},
		domain.MarketListing{Market: domain.MarketSkinport, MinPrice: 2.00},
		domain.MarketListing{Market: domain.MarketWhiteMarket, MinPrice: 3.00},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 4.00},
	)
	if got := d.Detect(s, 2); len(got) != 2 {
		t.Errorf("Detect topK=2 = %d opportunities, want 2", len(got))
	}
	if got := d.Detect(s, 0); len(got) != 3 {
		t.Errorf("Detect topK=0 = %d opportunities, want all 3", len(got))
	}
}

func TestDetectBuyTieFirstOccurrenceWins(t *testing.T) {
	d := NewDetector(domain.NewFeeSchedule(nil, 0.0))
	got := d.Detect(snap(
		domain.MarketListing{Market: domain.MarketSkinport, MinPrice: 5.00},
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 5.00},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 8.00},
	), 0)
	if len(got) == 0 {
		t.Fatal("Detect returned no opportunities")
	}
	if got[0].BuyMarket != domain.MarketSkinport {
		t.Errorf("BuyMarket = %s, want SKINPORT (first occurrence of tied minimum)", got[0].BuyMarket)
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := NewDetector(testFees)
	s := snap(
		domain.MarketListing{Market: domain.MarketCSFloat, MinPrice: 9.00},
		domain.MarketListing{Market: domain.MarketSteamCommunity, MinPrice: 12.00},
		domain.MarketListing{Market: domain.MarketSkinport, MinPrice: 11.00},
	)
	a := d.Detect(s, 0)
	b := d.Detect(s, 0)
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		// IDs and timestamps are per-run; the economics must match exactly.
		if a[i].BuyMarket != b[i].BuyMarket || a[i].SellMarket != b[i].SellMarket ||
			a[i].Profit != b[i].Profit || a[i].ROI != b[i].ROI {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
