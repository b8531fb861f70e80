package reporting

import (
	"time"

	"swing-trade-lab/internal/domain"
)

// Report bundles everything a finished backtest run produced: the
// performance snapshot, the closed-trade ledger, and the equity curve.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	Performance *domain.PerformanceReport
	Trades      []*domain.Trade
	EquityCurve []domain.EquityPoint
}

// NoTrades reports whether the run closed zero trades. A valid outcome,
// distinct from a failed run.
func (r *Report) NoTrades() bool {
	return len(r.Trades) == 0
}
