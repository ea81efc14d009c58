// Package report formats bot events into notification messages.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"github.com/vadiminshakov/dcabot/internal/services/indicators"
	"github.com/vadiminshakov/dcabot/internal/services/notifier"
)

// BuildTrade renders an executed simulated purchase.
func BuildTrade(pair domain.Pair, rec domain.PurchaseRecord, decision domain.TradingDecision, summary domain.HistorySummary) notifier.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulated DCA purchase for %s\n", pair.String())
	fmt.Fprintf(&b, "Reason: %s\n", decision.Reason)
	fmt.Fprintf(&b, "Price: %s\n", rec.Price.String())
	fmt.Fprintf(&b, "Spent: %s USD\n", rec.AmountUSD.String())
	fmt.Fprintf(&b, "Acquired: %s %s\n", rec.Quantity.Round(8).String(), pair.From)
	if !decision.PriceDropPercentage.IsZero() {
		fmt.Fprintf(&b, "Drop from last purchase: %s%%\n", decision.PriceDropPercentage.Round(2).String())
	}
	fmt.Fprintf(&b, "Total purchases: %d\n", summary.Count)
	fmt.Fprintf(&b, "Total invested: %s USD\n", summary.TotalInvested.String())
	if summary.AveragePrice.IsPositive() {
		fmt.Fprintf(&b, "Average entry price: %s", summary.AveragePrice.Round(2).String())
	}

	return notifier.Message{
		Kind:    notifier.KindTrade,
		Subject: fmt.Sprintf("DCA buy executed: %s", pair.String()),
		Body:    b.String(),
	}
}

// BuildWeekly renders the weekly summary report. currentPrice may be
// zero and indicators nil when the market data fetch failed; the report
// then omits the unrealized comparison and the technical context.
func BuildWeekly(pair domain.Pair, summary domain.HistorySummary, currentPrice decimal.Decimal, snap *indicators.Snapshot) notifier.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly DCA report for %s\n", pair.String())
	fmt.Fprintf(&b, "Purchases: %d\n", summary.Count)
	fmt.Fprintf(&b, "Total invested: %s USD\n", summary.TotalInvested.String())
	fmt.Fprintf(&b, "Total acquired: %s %s\n", summary.TotalQuantity.Round(8).String(), pair.From)
	if summary.AveragePrice.IsPositive() {
		fmt.Fprintf(&b, "Average entry price: %s\n", summary.AveragePrice.Round(2).String())
	}
	if summary.LastPurchase != nil {
		fmt.Fprintf(&b, "Last purchase: %s at %s\n",
			summary.LastPurchase.Timestamp.UTC().Format("2006-01-02 15:04"),
			summary.LastPurchase.Price.String())
	}
	if currentPrice.IsPositive() {
		fmt.Fprintf(&b, "Current price: %s\n", currentPrice.String())
		if summary.AveragePrice.IsPositive() {
			diff := currentPrice.Sub(summary.AveragePrice).Div(summary.AveragePrice).Mul(decimal.NewFromInt(100))
			fmt.Fprintf(&b, "Vs average entry: %s%%\n", diff.Round(2).String())
		}
	}
	if snap != nil {
		fmt.Fprintf(&b, "EMA20: %s\n", snap.EMA20.Round(2).String())
		fmt.Fprintf(&b, "RSI14: %s\n", snap.RSI14.Round(2).String())
	}

	return notifier.Message{
		Kind:    notifier.KindReport,
		Subject: fmt.Sprintf("Weekly DCA report: %s", pair.String()),
		Body:    b.String(),
	}
}
