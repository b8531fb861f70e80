package domain

import (
	"math"
	"time"
)

// Trade is one simulated round trip. Mutable until closed by the
// simulator, immutable afterwards. Prices are post-slippage fills.
type Trade struct {
	TradeID    string // deterministic hash, see idhash
	Symbol     string
	StrategyID string

	// Entry
	EntryTime     time.Time
	EntryPrice    float64 // filled entry, slippage applied
	Shares        int
	PositionValue float64
	StopPrice     float64 // initial stop at entry
	TargetPrice   float64

	// Exit
	ExitTime   time.Time
	ExitPrice  float64 // filled exit, slippage applied
	ExitReason string

	// Outcome
	GrossPnL   float64
	Commission float64 // entry + exit commission combined
	Slippage   float64 // modeled slippage cost in dollars, both sides
	NetPnL     float64
	ReturnPct  float64 // net P&L over position value
	RMultiple  float64

	// EquityAfter is the running account equity after this trade closed.
	EquityAfter float64
}

// Exit reason codes.
const (
	ExitReasonTarget       = "target"
	ExitReasonStop         = "stop"
	ExitReasonTrailingStop = "trailing_stop"
)

// Win reports whether the trade closed with positive net P&L.
func (t *Trade) Win() bool {
	return t.NetPnL > 0
}

// HoldingDays is the trade's span in whole days, used for exposure
// accounting. Partial days truncate.
func (t *Trade) HoldingDays() float64 {
	return math.Floor(t.ExitTime.Sub(t.EntryTime).Hours() / 24)
}
