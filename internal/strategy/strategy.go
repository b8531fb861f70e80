package strategy

import (
	"swing-trade-lab/internal/domain"
)

// Strategy turns an indicator-annotated bar series into entry signals.
type Strategy interface {
	// ProduceSignals returns a copy of the series with entry signals
	// attached to qualifying bars. The input is never mutated.
	ProduceSignals(bars []*domain.Bar) []*domain.Bar

	// Scan checks the most recent bar for a tradeable setup.
	// Returns nil when no setup is present or data is insufficient.
	Scan(symbol string, bars []*domain.Bar) *Setup

	// ID returns the strategy identifier (includes parameters).
	ID() string

	// BaseType returns the canonical base strategy type.
	BaseType() string
}

// ExitEvaluator is an optional per-bar exit policy. Strategies that
// implement it can tighten stops during a trade's life; the simulator
// never lets the returned stop loosen the effective one.
type ExitEvaluator interface {
	// EvaluateExit inspects an open long position at a bar close.
	// stopPrice is the trade's original stop, so the r-multiple keeps
	// growing as price moves beyond breakeven. Returns whether to
	// exit, the new stop level, and the exit reason (empty while
	// holding).
	EvaluateExit(entryPrice, closePrice, atr, stopPrice float64) (bool, float64, string)
}

// Setup is a trade plan produced by scanning the latest bar.
type Setup struct {
	Symbol     string
	SetupName  string
	Entry      float64
	Stop       float64
	Target     float64
	Timeframe  string
	Confidence float64 // 0..1
	Notes      string
}

// evaluateTrailingExit implements the shared stop ratchet: breakeven
// at +1R, then an ATR trail once the trade reaches trailR. stopPrice
// must be the original stop; the r-multiple is measured against the
// initial risk, not the ratcheted stop.
func evaluateTrailingExit(entryPrice, closePrice, atr, stopPrice, atrStopMult, trailR float64) (bool, float64, string) {
	risk := entryPrice - stopPrice

	var rMultiple float64
	if risk > 0 {
		rMultiple = (closePrice - entryPrice) / risk
	}

	newStop := stopPrice
	if rMultiple >= 1.0 {
		newStop = entryPrice
	}

	if rMultiple >= trailR {
		trailing := closePrice - atr*atrStopMult
		if trailing > newStop {
			newStop = trailing
		}
	}

	if closePrice <= newStop {
		return true, newStop, domain.ExitReasonTrailingStop
	}

	return false, newStop, ""
}

// copyBars returns shallow copies of the bars so signal annotation
// never writes through to the caller's series.
func copyBars(bars []*domain.Bar) []*domain.Bar {
	out := make([]*domain.Bar, len(bars))
	for i, b := range bars {
		c := *b
		out[i] = &c
	}
	return out
}
