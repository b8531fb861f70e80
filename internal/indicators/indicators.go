// Package indicators annotates OHLCV bar series with the derived
// values the strategies and exit logic consume: moving averages, ATR,
// rolling extremes, and average volume.
package indicators

import (
	"math"

	"swing-trade-lab/internal/domain"
)

// Window lengths for the derived indicator set.
const (
	SMAShortPeriod = 20
	SMALongPeriod  = 50
	EMAFastPeriod  = 10
	EMASlowPeriod  = 20
	ATRPeriod      = 14
	RollingPeriod  = 20
)

// Annotate returns a new series with indicator fields populated.
// The input is never mutated; bars are copied. Fields without enough
// history are NaN.
func Annotate(bars []*domain.Bar) []*domain.Bar {
	if len(bars) == 0 {
		return nil
	}

	out := make([]*domain.Bar, len(bars))
	for i, b := range bars {
		copied := *b
		copied.SMA20 = math.NaN()
		copied.SMA50 = math.NaN()
		copied.EMA10 = math.NaN()
		copied.EMA20 = math.NaN()
		copied.ATR14 = math.NaN()
		copied.High20 = math.NaN()
		copied.Low20 = math.NaN()
		copied.Volume20 = math.NaN()
		out[i] = &copied
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma20 := rollingMean(closes, SMAShortPeriod)
	sma50 := rollingMean(closes, SMALongPeriod)
	ema10 := ema(closes, EMAFastPeriod)
	ema20 := ema(closes, EMASlowPeriod)
	atr := atr14(bars)

	for i := range out {
		out[i].SMA20 = sma20[i]
		out[i].SMA50 = sma50[i]
		out[i].EMA10 = ema10[i]
		out[i].EMA20 = ema20[i]
		out[i].ATR14 = atr[i]

		if i >= RollingPeriod-1 {
			hi := math.Inf(-1)
			lo := math.Inf(1)
			vol := 0.0
			for j := i - RollingPeriod + 1; j <= i; j++ {
				hi = math.Max(hi, bars[j].High)
				lo = math.Min(lo, bars[j].Low)
				vol += bars[j].Volume
			}
			out[i].High20 = hi
			out[i].Low20 = lo
			out[i].Volume20 = vol / RollingPeriod
		}
	}

	return out
}

// rollingMean computes a simple moving average; NaN before the window fills.
func rollingMean(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		} else {
			result[i] = math.NaN()
		}
	}
	return result
}

// ema computes an exponential moving average seeded from the first
// value, smoothing factor 2/(period+1).
func ema(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}

	alpha := 2.0 / float64(period+1)
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}
	return result
}

// atr14 computes the 14-bar simple average of true range. The first
// bar's true range is its high-low span since there is no prior close.
func atr14(bars []*domain.Bar) []float64 {
	result := make([]float64, len(bars))
	tr := make([]float64, len(bars))

	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			result[i] = math.NaN()
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low,
			math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	sum := 0.0
	for i := range tr {
		sum += tr[i]
		if i >= ATRPeriod {
			sum -= tr[i-ATRPeriod]
		}
		if i >= ATRPeriod-1 {
			result[i] = sum / float64(ATRPeriod)
		} else {
			result[i] = math.NaN()
		}
	}
	return result
}
