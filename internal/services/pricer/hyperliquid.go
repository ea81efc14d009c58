package pricer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

// HyperliquidAPIURL is the public mainnet Info API endpoint.
const HyperliquidAPIURL = "https://api.hyperliquid.xyz"

// HyperliquidSource fetches market data from the Hyperliquid Info API.
// Prices are keyed by base coin; USD quoting is implicit.
type HyperliquidSource struct {
	info *hyperliquid.Info
}

// NewHyperliquidSource creates a Hyperliquid-backed market data source.
func NewHyperliquidSource(info *hyperliquid.Info) *HyperliquidSource {
	return &HyperliquidSource{info: info}
}

// NewHyperliquidInfo builds the Info client from a wallet private key.
// The SDK signs requests with the key even for read-only access.
func NewHyperliquidInfo(privateKeyHex, baseURL string) (*hyperliquid.Info, error) {
	key := strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("parse hyperliquid private key: %w", err)
	}

	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected hyperliquid public key type")
	}
	accountAddr := crypto.PubkeyToAddress(*pub).Hex()

	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return ex.Info(), nil
}

// GetPrice fetches the current mid price for the pair's base coin.
func (p *HyperliquidSource) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if p.info == nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			"hyperliquid info client is not configured", nil)
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrNetwork,
			"fetch mids from hyperliquid", err)
	}

	coin := strings.ToUpper(pair.From)
	mid, ok := mids[coin]
	if !ok || mid == "" {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("hyperliquid returned no mid price for %s", coin), nil)
	}

	price, err := decimal.NewFromString(mid)
	if err != nil {
		return decimal.Decimal{}, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("unparseable hyperliquid price %q", mid), err)
	}

	return price, nil
}

// GetKlines fetches a candle snapshot ending now.
func (p *HyperliquidSource) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if p.info == nil {
		return nil, domain.NewMarketDataError(domain.MarketErrInvalid,
			"hyperliquid info client is not configured", nil)
	}
	if limit <= 0 {
		return nil, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("kline limit must be positive, got %d", limit), nil)
	}

	dur, err := parseKlineInterval(interval)
	if err != nil {
		return nil, err
	}

	endMs := time.Now().UnixMilli()
	// over-fetch a couple of candles to cover window rounding
	startMs := endMs - (int64(limit)+2)*dur.Milliseconds()

	coin := strings.ToUpper(pair.From)
	raw, err := p.info.CandlesSnapshot(ctx, coin, interval, startMs, endMs)
	if err != nil {
		return nil, domain.NewMarketDataError(domain.MarketErrNetwork,
			"fetch candles from hyperliquid", err)
	}
	if len(raw) == 0 {
		return nil, domain.NewMarketDataError(domain.MarketErrInvalid,
			fmt.Sprintf("hyperliquid returned no candles for %s %s", coin, interval), nil)
	}

	if len(raw) > limit {
		raw = raw[len(raw)-limit:]
	}

	candles := make([]domain.Candle, 0, len(raw))
	for i, c := range raw {
		open, err := decimal.NewFromString(c.Open)
		if err != nil {
			return nil, fmt.Errorf("parse open at index %d: %w", i, err)
		}
		high, err := decimal.NewFromString(c.High)
		if err != nil {
			return nil, fmt.Errorf("parse high at index %d: %w", i, err)
		}
		low, err := decimal.NewFromString(c.Low)
		if err != nil {
			return nil, fmt.Errorf("parse low at index %d: %w", i, err)
		}
		closePrice, err := decimal.NewFromString(c.Close)
		if err != nil {
			return nil, fmt.Errorf("parse close at index %d: %w", i, err)
		}
		volume, err := decimal.NewFromString(c.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse volume at index %d: %w", i, err)
		}

		candles = append(candles, domain.Candle{
			OpenTime:  time.UnixMilli(c.TimeOpen),
			CloseTime: time.UnixMilli(c.TimeClose),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return candles, nil
}

// parseKlineInterval parses intervals like "1m", "4h", "1d".
func parseKlineInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid kline interval %q", interval)
	}

	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid kline interval %q", interval)
	}

	switch interval[len(interval)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported kline interval unit in %q", interval)
	}
}
