package pricer

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimited wraps a market data source with a client-side rate limiter
// so polling cycles never trip exchange request quotas.
type RateLimited struct {
	inner   MarketDataSource
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited wrapper allowing requestsPerSec
// sustained requests with a burst of the same size.
func NewRateLimited(inner MarketDataSource, requestsPerSec int) *RateLimited {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
	}
}

func (r *RateLimited) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrRateLimit, "rate limiter wait", err)
	}
	return r.inner.GetPrice(ctx, pair)
}

func (r *RateLimited) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, domain.NewMarketDataError(domain.MarketErrRateLimit, "rate limiter wait", err)
	}
	return r.inner.GetKlines(ctx, pair, interval, limit)
}
