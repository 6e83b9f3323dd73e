package stats

import (
	"math"
	"testing"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

func intPtr(n int) *int { return &n }

func fPtr(f float64) *float64 { return &f }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregateMeanThenMedianFallback(t *testing.T) {
	history := []domain.DailySalesRecord{
		{
			Day: day("2024-01-01"),
			Sales: []domain.MarketSale{
				{Market: domain.MarketCSFloat, Volume: intPtr(10), MeanPrice: fPtr(5.00)},
				{Market: domain.MarketSkinport, Volume: intPtr(4), MedianPrice: fPtr(6.00)},
			},
		},
		{
			Day: day("2024-01-02"),
			Sales: []domain.MarketSale{
				// No price fields at all: volume still counts, no sample taken.
				{Market: domain.MarketCSFloat, Volume: intPtr(5)},
			},
		},
	}

	got := Aggregate(history)
	if got == nil {
		t.Fatal("Aggregate returned nil, want stats")
	}
	if got.TotalVolume != 19 {
		t.Errorf("TotalVolume = %d, want 19", got.TotalVolume)
	}
	if !approx(got.AvgDailyVolume, 9.5) {
		t.Errorf("AvgDailyVolume = %v, want 9.5", got.AvgDailyVolume)
	}
	if !approx(got.MinPrice, 5.00) || !approx(got.MaxPrice, 6.00) {
		t.Errorf("min/max = %v/%v, want 5/6", got.MinPrice, got.MaxPrice)
	}
	if !approx(got.AvgPrice, 5.50) {
		t.Errorf("AvgPrice = %v, want 5.5", got.AvgPrice)
	}
	if got.DaysTracked != 2 {
		t.Errorf("DaysTracked = %d, want 2", got.DaysTracked)
	}
}

func TestAggregateSingleDayVolumeOnlySecondDay(t *testing.T) {
	// Scenario: day1 mean=$5 vol=10, day2 no prices but vol=5.
	history := []domain.DailySalesRecord{
		{Day: day("2024-01-01"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(10), MeanPrice: fPtr(5.00)},
		}},
		{Day: day("2024-01-02"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(5)},
		}},
	}

	got := Aggregate(history)
	if got == nil {
		t.Fatal("Aggregate returned nil")
	}
	if got.TotalVolume != 15 || !approx(got.AvgDailyVolume, 7.5) {
		t.Errorf("volume = %d avg %v, want 15 / 7.5", got.TotalVolume, got.AvgDailyVolume)
	}
	if !approx(got.AvgPrice, 5.00) {
		t.Errorf("AvgPrice = %v, want 5.00", got.AvgPrice)
	}
}

func TestAggregateNoPriceSamples(t *testing.T) {
	history := []domain.DailySalesRecord{
		{Day: day("2024-01-01"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(3)},
		}},
		{Day: day("2024-01-02"), Sales: []domain.MarketSale{
			{Market: domain.MarketSkinport},
		}},
	}
	if got := Aggregate(history); got != nil {
		t.Errorf("Aggregate = %+v, want nil for price-less history", got)
	}
}

func TestAggregateEmptyHistory(t *testing.T) {
	if got := Aggregate(nil); got != nil {
		t.Errorf("Aggregate(nil) = %+v, want nil", got)
	}
}

func TestAggregateBoundsInvariant(t *testing.T) {
	history := []domain.DailySalesRecord{
		{Day: day("2024-01-01"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, MeanPrice: fPtr(9.10), Volume: intPtr(1)},
			{Market: domain.MarketSkinport, MeanPrice: fPtr(3.75)},
			{Market: domain.MarketSteamCommunity, MedianPrice: fPtr(12.40)},
		}},
	}
	got := Aggregate(history)
	if got == nil {
		t.Fatal("Aggregate returned nil")
	}
	if got.MinPrice > got.AvgPrice || got.AvgPrice > got.MaxPrice {
		t.Errorf("bounds violated: min %v avg %v max %v", got.MinPrice, got.AvgPrice, got.MaxPrice)
	}
	if !approx(got.AvgDailyVolume, float64(got.TotalVolume)/float64(got.DaysTracked)) {
		t.Errorf("AvgDailyVolume %v != TotalVolume/DaysTracked", got.AvgDailyVolume)
	}
}

func TestAggregateZeroVolumeDistinctFromAbsent(t *testing.T) {
	history := []domain.DailySalesRecord{
		{Day: day("2024-01-01"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(0), MeanPrice: fPtr(1.00)},
			{Market: domain.MarketSkinport, MeanPrice: fPtr(2.00)},
		}},
	}
	got := Aggregate(history)
	if got == nil {
		t.Fatal("Aggregate returned nil")
	}
	if got.TotalVolume != 0 {
		t.Errorf("TotalVolume = %d, want 0 (explicit zero counts as zero)", got.TotalVolume)
	}
}

func TestCorrelateVolume(t *testing.T) {
	history := []domain.DailySalesRecord{
		{Day: day("2024-01-01"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(100)},
		}},
		{Day: day("2024-01-02"), Sales: []domain.MarketSale{
			{Market: domain.MarketCSFloat, Volume: intPtr(50)},
		}},
	}
	counts := []domain.PlayerCountPoint{
		{Date: day("2024-01-01"), Count: 900000},
	}

	points := CorrelateVolume(history, counts)
	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if !points[0].HasPlayers || points[0].Players != 900000 || points[0].Volume != 100 {
		t.Errorf("points[0] = %+v, want matched player count", points[0])
	}
	if points[1].HasPlayers {
		t.Errorf("points[1] = %+v, want no player count for unmatched day", points[1])
	}
}
