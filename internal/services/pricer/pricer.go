// Package pricer supplies current prices and historical candles from
// exchange public APIs.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

// Pricer returns the current market price for a pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// KlineProvider returns historical candles for a pair.
type KlineProvider interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error)
}

// MarketDataSource combines price and candle access.
type MarketDataSource interface {
	Pricer
	KlineProvider
}
