package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"github.com/vadiminshakov/dcabot/internal/services/indicators"
	"github.com/vadiminshakov/dcabot/internal/services/notifier"
)

var btcUSDT = domain.Pair{From: "BTC", To: "USDT"}

func TestBuildTrade(t *testing.T) {
	rec, err := domain.NewPurchaseRecord(
		decimal.NewFromInt(57000), decimal.NewFromInt(500), time.Now())
	require.NoError(t, err)

	decision := domain.TradingDecision{
		ShouldBuy:            true,
		Reason:               "price dropped 5% (threshold 5%)",
		RecommendedAmountUSD: decimal.NewFromInt(500),
		PriceDropPercentage:  decimal.NewFromInt(5),
	}
	summary := domain.SummarizePurchases([]domain.PurchaseRecord{rec})

	msg := BuildTrade(btcUSDT, rec, decision, summary)

	assert.Equal(t, notifier.KindTrade, msg.Kind)
	assert.Equal(t, "DCA buy executed: BTC_USDT", msg.Subject)
	assert.Contains(t, msg.Body, "Reason: price dropped 5% (threshold 5%)")
	assert.Contains(t, msg.Body, "Price: 57000")
	assert.Contains(t, msg.Body, "Spent: 500 USD")
	assert.Contains(t, msg.Body, "Drop from last purchase: 5%")
	assert.Contains(t, msg.Body, "Total purchases: 1")
}

func TestBuildTrade_InitialPurchaseOmitsDrop(t *testing.T) {
	rec, err := domain.NewPurchaseRecord(
		decimal.NewFromInt(60000), decimal.NewFromInt(500), time.Now())
	require.NoError(t, err)

	decision := domain.TradingDecision{
		ShouldBuy:            true,
		Reason:               "initial purchase",
		RecommendedAmountUSD: decimal.NewFromInt(500),
	}
	summary := domain.SummarizePurchases([]domain.PurchaseRecord{rec})

	msg := BuildTrade(btcUSDT, rec, decision, summary)

	assert.NotContains(t, msg.Body, "Drop from last purchase")
}

func TestBuildWeekly(t *testing.T) {
	rec, err := domain.NewPurchaseRecord(
		decimal.NewFromInt(50000), decimal.NewFromInt(500),
		time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	summary := domain.SummarizePurchases([]domain.PurchaseRecord{rec})

	msg := BuildWeekly(btcUSDT, summary, decimal.NewFromInt(55000), nil)

	assert.Equal(t, notifier.KindReport, msg.Kind)
	assert.Equal(t, "Weekly DCA report: BTC_USDT", msg.Subject)
	assert.Contains(t, msg.Body, "Purchases: 1")
	assert.Contains(t, msg.Body, "Total invested: 500 USD")
	assert.Contains(t, msg.Body, "Last purchase: 2026-08-24 09:00 at 50000")
	assert.Contains(t, msg.Body, "Current price: 55000")
	assert.Contains(t, msg.Body, "Vs average entry: 10%")
}

func TestBuildWeekly_EmptyHistoryNoPrice(t *testing.T) {
	msg := BuildWeekly(btcUSDT, domain.HistorySummary{}, decimal.Zero, nil)

	assert.Contains(t, msg.Body, "Purchases: 0")
	assert.NotContains(t, msg.Body, "Current price")
	assert.NotContains(t, msg.Body, "Average entry price")
	assert.NotContains(t, msg.Body, "Last purchase")
	assert.NotContains(t, msg.Body, "EMA20")
	assert.NotContains(t, msg.Body, "RSI14")
}

func TestBuildWeekly_WithIndicators(t *testing.T) {
	snap := &indicators.Snapshot{
		EMA20: decimal.NewFromFloat(54321.129),
		RSI14: decimal.NewFromFloat(63.456),
	}

	msg := BuildWeekly(btcUSDT, domain.HistorySummary{}, decimal.Zero, snap)

	assert.Contains(t, msg.Body, "EMA20: 54321.13")
	assert.Contains(t, msg.Body, "RSI14: 63.46")
}
