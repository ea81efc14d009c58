package pricer

import (
	"context"
	"fmt"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

// BybitPricer fetches market data from the Bybit public API.
type BybitPricer struct {
	client *bybit.Client
}

// NewBybitPricer creates a Bybit-backed price source.
func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

// GetPrice fetches the current spot price.
func (p *BybitPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrNetwork,
			"fetch price from bybit", err)
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("bybit returned empty prices for %s", pair.String()), nil)
	}

	price, err := decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
	if err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("unparseable bybit price %q", result.Result.Spot.List[0].LastPrice), err)
	}

	return price, nil
}

// GetKlines is not wired for Bybit spot; use the Binance platform when
// candle history is needed.
func (p *BybitPricer) GetKlines(_ context.Context, pair domain.Pair, _ string, _ int) ([]domain.Candle, error) {
	return nil, domain.NewMarketDataError(domain.MarketErrInvalid,
		fmt.Sprintf("bybit kline history is not supported for %s", pair.String()), nil)
}
