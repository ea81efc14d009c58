package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV candlestick.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}
