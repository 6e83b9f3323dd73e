package notify

import (
	"fmt"
	"strings"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// FormatAlert renders a watchlist alert as a notification title and body.
func FormatAlert(alert domain.WatchlistAlert) (title, message string) {
	title = fmt.Sprintf("Price alert: %s", alert.ItemName)
	message = fmt.Sprintf(
		"%s is at $%.2f on %s (target $%.2f, save $%.2f)",
		alert.ItemName, alert.CurrentPrice, alert.Market,
		alert.TargetPrice, alert.Savings,
	)
	return title, message
}

// FormatOpportunities renders a batch of opportunities for one item as a
// single notification, best ROI first.
func FormatOpportunities(itemName string, opps []domain.ArbitrageOpportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage: %s", itemName)

	var b strings.Builder
	for i, opp := range opps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b,
			"buy %s $%.2f, sell %s $%.2f (fee %.0f%%): profit $%.2f, roi %.1f%%",
			opp.BuyMarket, opp.BuyPrice,
			opp.SellMarket, opp.SellPrice, opp.SellFee*100,
			opp.Profit, opp.ROI,
		)
	}
	return title, b.String()
}
