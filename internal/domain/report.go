package domain

import "time"

// PerformanceReport is the immutable metrics snapshot derived from a
// finished trade ledger and equity curve. Never mutated after
// construction.
type PerformanceReport struct {
	StrategyID string
	Symbol     string
	StartDate  time.Time
	EndDate    time.Time

	// Counts
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	// Returns
	TotalReturn    float64 // dollars
	TotalReturnPct float64
	CAGR           float64

	// Risk
	MaxDrawdown    float64 // dollars
	MaxDrawdownPct float64
	SharpeRatio    float64
	ProfitFactor   float64 // +Inf when there are no losing trades

	// Trade statistics
	AvgWin       float64
	AvgLoss      float64
	AvgRMultiple float64
	LargestWin   float64
	LargestLoss  float64

	// Exposure: fraction of the run window with capital committed.
	AvgExposure float64

	// Costs
	TotalCommission float64
	TotalSlippage   float64
}
