package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRecord is an immutable entry in the purchase history:
// one simulated buy at a given price. Records are only ever appended,
// never edited.
type PurchaseRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewPurchaseRecord creates a validated purchase record. Quantity is
// derived from the executed price and the quote amount spent.
func NewPurchaseRecord(price, amountUSD decimal.Decimal, ts time.Time) (PurchaseRecord, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return PurchaseRecord{}, fmt.Errorf("price must be positive, got %s", price.String())
	}
	if amountUSD.LessThanOrEqual(decimal.Zero) {
		return PurchaseRecord{}, fmt.Errorf("amount must be positive, got %s", amountUSD.String())
	}

	return PurchaseRecord{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Price:     price,
		AmountUSD: amountUSD,
		Quantity:  amountUSD.Div(price),
	}, nil
}

// HistorySummary is derived from the full record sequence on demand.
// It is never persisted independently.
type HistorySummary struct {
	Count         int
	TotalInvested decimal.Decimal
	TotalQuantity decimal.Decimal
	AveragePrice  decimal.Decimal
	LastPurchase  *PurchaseRecord
}

// SummarizePurchases recomputes summary statistics from the record
// sequence. Average price is quantity-weighted: total invested divided
// by total base quantity acquired.
func SummarizePurchases(records []PurchaseRecord) HistorySummary {
	summary := HistorySummary{
		TotalInvested: decimal.Zero,
		TotalQuantity: decimal.Zero,
		AveragePrice:  decimal.Zero,
	}

	for i := range records {
		summary.TotalInvested = summary.TotalInvested.Add(records[i].AmountUSD)
		summary.TotalQuantity = summary.TotalQuantity.Add(records[i].Quantity)
	}

	summary.Count = len(records)
	if summary.Count > 0 {
		last := records[len(records)-1]
		summary.LastPurchase = &last
	}
	if summary.TotalQuantity.IsPositive() {
		summary.AveragePrice = summary.TotalInvested.Div(summary.TotalQuantity)
	}

	return summary
}
