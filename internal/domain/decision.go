package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const percentageMultiplier = 100

// TradingDecision is the outcome of one DCA evaluation. Produced fresh
// on every call, never shared between cycles. RecommendedAmountUSD,
// LastPurchasePrice and PriceDropPercentage are zero when not
// applicable (no buy, empty history).
type TradingDecision struct {
	ShouldBuy            bool
	Reason               string
	RecommendedAmountUSD decimal.Decimal
	LastPurchasePrice    decimal.Decimal
	PriceDropPercentage  decimal.Decimal
}

// Decide evaluates the DCA rule for the current price against the
// purchase history. Pure function: no I/O, no shared state,
// deterministic given its inputs.
//
// The drop percentage is signed: a price above the reference yields a
// negative value and never triggers a buy. The threshold comparison is
// inclusive, a drop exactly equal to DCADropPct buys.
func Decide(cfg TradingConfig, currentPrice decimal.Decimal, history HistorySummary) (TradingDecision, error) {
	if currentPrice.LessThanOrEqual(decimal.Zero) {
		return TradingDecision{}, NewMarketDataError(MarketErrInvalid,
			fmt.Sprintf("current price must be positive, got %s", currentPrice.String()), nil)
	}

	if !cfg.EnableDCA {
		return TradingDecision{ShouldBuy: false, Reason: "DCA disabled"}, nil
	}

	// bootstrap: no history yet, make the first purchase at any price
	if history.Count == 0 {
		return TradingDecision{
			ShouldBuy:            true,
			Reason:               "initial purchase",
			RecommendedAmountUSD: clampToBudget(cfg.DCABuyAmountUSD, cfg.BudgetUSD),
		}, nil
	}

	referencePrice := history.LastPurchase.Price
	dropPct := referencePrice.Sub(currentPrice).Div(referencePrice).Mul(decimal.NewFromInt(percentageMultiplier))

	decision := TradingDecision{
		LastPurchasePrice:   referencePrice,
		PriceDropPercentage: dropPct,
	}

	if dropPct.LessThan(cfg.DCADropPct) {
		decision.Reason = fmt.Sprintf("price drop %s%% below threshold %s%%",
			dropPct.Round(2).String(), cfg.DCADropPct.String())
		return decision, nil
	}

	remaining := cfg.BudgetUSD.Sub(history.TotalInvested)
	if remaining.LessThanOrEqual(decimal.Zero) {
		decision.Reason = "budget exhausted"
		return decision, nil
	}

	decision.ShouldBuy = true
	decision.Reason = fmt.Sprintf("price dropped %s%% (threshold %s%%)",
		dropPct.Round(2).String(), cfg.DCADropPct.String())
	decision.RecommendedAmountUSD = cfg.DCABuyAmountUSD
	if decision.RecommendedAmountUSD.GreaterThan(remaining) {
		decision.RecommendedAmountUSD = remaining
	}

	return decision, nil
}

func clampToBudget(amount, budget decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(budget) {
		return budget
	}
	return amount
}
