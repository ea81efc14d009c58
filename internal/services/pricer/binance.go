package pricer

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

// BinancePricer fetches market data from the Binance public API.
// No authentication is needed for prices and klines.
type BinancePricer struct {
	client *binance.Client
}

// NewBinancePricer creates a Binance-backed market data source.
func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

// GetPrice fetches the current market price.
func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, classifyBinanceErr(err, "fetch price from binance")
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("binance returned empty prices for %s", pair.String()), nil)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("unparseable binance price %q", prices[0].Price), err)
	}

	return price, nil
}

// GetKlines fetches historical candles.
func (p *BinancePricer) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr(err, "fetch klines from binance")
	}

	candles := make([]domain.Candle, 0, len(klines))
	for i, k := range klines {
		candle, err := parseBinanceKline(k)
		if err != nil {
			return nil, errors.Wrapf(err, "parse kline at index %d", i)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func parseBinanceKline(k *binance.Kline) (domain.Candle, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "open price")
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "high price")
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "low price")
	}
	closePrice, err := decimal.NewFromString(k.Close)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "close price")
	}
	volume, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "volume")
	}

	return domain.Candle{
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// classifyBinanceErr maps binance API errors onto market data error kinds
// so the cycle can distinguish rate limits and auth failures from plain
// network trouble.
func classifyBinanceErr(err error, msg string) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1003, -1015:
			return domain.NewMarketDataError(domain.MarketErrRateLimit, msg, err)
		case -2014, -2015, -1022:
			return domain.NewMarketDataError(domain.MarketErrAuth, msg, err)
		}
	}
	return domain.NewMarketDataError(domain.MarketErrNetwork, msg, err)
}
