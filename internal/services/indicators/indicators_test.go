package indicators

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

func constantCloses(n int, price int64) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.NewFromInt(price)
	}
	return out
}

func risingCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	base := time.Now().Add(-time.Duration(n) * time.Hour)
	for i := range out {
		price := decimal.NewFromInt(int64(50000 + i*100))
		out[i] = domain.Candle{
			OpenTime:  base.Add(time.Duration(i) * time.Hour),
			CloseTime: base.Add(time.Duration(i+1) * time.Hour),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
		}
	}
	return out
}

func TestCalculateEMA_ConstantSeries(t *testing.T) {
	closes := constantCloses(30, 50000)

	ema, err := CalculateEMA(closes, 20)
	require.NoError(t, err)
	require.NotEmpty(t, ema)

	last := ema[len(ema)-1]
	assert.True(t, last.Sub(decimal.NewFromInt(50000)).Abs().LessThan(decimal.NewFromFloat(0.01)),
		"EMA of a constant series must equal the constant, got %s", last.String())
}

func TestCalculateEMA_NotEnoughData(t *testing.T) {
	_, err := CalculateEMA(constantCloses(5, 50000), 20)
	require.Error(t, err)
}

func TestCalculateRSI_RisingSeries(t *testing.T) {
	closes := make([]decimal.Decimal, 30)
	for i := range closes {
		closes[i] = decimal.NewFromInt(int64(50000 + i*100))
	}

	rsi, err := CalculateRSI(closes, 14)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)

	last := rsi[len(rsi)-1]
	assert.True(t, last.GreaterThan(decimal.NewFromInt(99)),
		"RSI of a strictly rising series must saturate near 100, got %s", last.String())
}

func TestCalculateRSI_NotEnoughData(t *testing.T) {
	_, err := CalculateRSI(constantCloses(10, 50000), 14)
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	snap, err := Summarize(risingCandles(30))
	require.NoError(t, err)

	assert.True(t, snap.EMA20.IsPositive())
	assert.True(t, snap.RSI14.GreaterThan(decimal.NewFromInt(99)))
}

func TestSummarize_NotEnoughCandles(t *testing.T) {
	_, err := Summarize(risingCandles(5))
	require.Error(t, err)
}
