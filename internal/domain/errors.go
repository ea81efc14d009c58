package domain

import "fmt"

// MarketDataErrorKind classifies market data failures so callers can pick
// the right fallback (retry, skip the tick, back off).
type MarketDataErrorKind string

const (
	MarketErrNetwork   MarketDataErrorKind = "network"
	MarketErrAuth      MarketDataErrorKind = "auth"
	MarketErrRateLimit MarketDataErrorKind = "ratelimit"
	MarketErrInvalid   MarketDataErrorKind = "invalid"
)

// MarketDataError is returned for unusable market readings and failed
// price/candle fetches.
type MarketDataError struct {
	Kind MarketDataErrorKind
	Msg  string
	Err  error
}

func (e *MarketDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market data error (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("market data error (%s): %s", e.Kind, e.Msg)
}

func (e *MarketDataError) Unwrap() error {
	return e.Err
}

// NewMarketDataError builds a classified market data error.
func NewMarketDataError(kind MarketDataErrorKind, msg string, err error) *MarketDataError {
	return &MarketDataError{Kind: kind, Msg: msg, Err: err}
}
