package domain

import (
	"math"
	"time"
)

// Bar is one time-indexed OHLCV observation plus derived indicators.
// Indicator fields are NaN until the bar has enough history; callers
// must check with math.IsNaN before using them.
type Bar struct {
	Symbol    string
	Timestamp time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Derived indicators, populated by indicators.Annotate.
	SMA20    float64
	SMA50    float64
	EMA10    float64
	EMA20    float64
	ATR14    float64
	High20   float64 // rolling 20-bar high
	Low20    float64 // rolling 20-bar low
	Volume20 float64 // rolling 20-bar average volume

	// Signal is the entry candidate attached to this bar, nil when none.
	Signal *Signal
}

// HasATR reports whether the bar carries a usable ATR value.
func (b *Bar) HasATR() bool {
	return !math.IsNaN(b.ATR14) && b.ATR14 > 0
}

// ValidateSeries checks that bars are strictly increasing in time.
// Returns ErrSeriesNotOrdered on the first violation.
func ValidateSeries(bars []*Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return ErrSeriesNotOrdered
		}
	}
	return nil
}
