// Package indicators derives technical context from candle history for
// the weekly report, using the cinar/indicator library.
package indicators

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/dcabot/internal/domain"
)

const (
	emaPeriod = 20
	rsiPeriod = 14
)

// Snapshot is the latest indicator reading over a candle window.
type Snapshot struct {
	// EMA20 is the 20-period exponential moving average of closes.
	EMA20 decimal.Decimal
	// RSI14 is the 14-period relative strength index.
	RSI14 decimal.Decimal
}

// Summarize computes the latest EMA20 and RSI14 from candle closes.
// Needs at least emaPeriod candles.
func Summarize(candles []domain.Candle) (Snapshot, error) {
	if len(candles) < emaPeriod {
		return Snapshot{}, errors.Errorf("not enough candles for indicators: need %d, got %d",
			emaPeriod, len(candles))
	}

	closes := make([]decimal.Decimal, 0, len(candles))
	for i := range candles {
		closes = append(closes, candles[i].Close)
	}

	emaSeries, err := CalculateEMA(closes, emaPeriod)
	if err != nil {
		return Snapshot{}, err
	}
	rsiSeries, err := CalculateRSI(closes, rsiPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		EMA20: emaSeries[len(emaSeries)-1],
		RSI14: rsiSeries[len(rsiSeries)-1],
	}, nil
}

// CalculateEMA computes the exponential moving average series for the
// given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period {
		return nil, errors.Errorf("not enough data points for EMA: need %d, got %d", period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	if len(out) == 0 {
		return nil, errors.New("EMA produced no values")
	}

	return float64ToDecimals(out), nil
}

// CalculateRSI computes the relative strength index series for the
// given period.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period+1 {
		return nil, errors.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	if len(out) == 0 {
		return nil, errors.New("RSI produced no values")
	}

	return float64ToDecimals(out), nil
}

func decimalsToFloat64(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i], _ = v.Float64()
	}
	return out
}

func float64ToDecimals(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}
