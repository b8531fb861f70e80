package domain

import "errors"

// Validation errors for run configuration and input series. These are
// caller bugs and fail a run immediately, unlike malformed signals
// which are skipped.
var (
	ErrNonPositiveCapital = errors.New("initial capital must be positive")
	ErrNegativeCommission = errors.New("commission per trade must not be negative")
	ErrNegativeSlippage   = errors.New("slippage pct must not be negative")
	ErrSeriesNotOrdered   = errors.New("bar series must be strictly increasing in time")
)

// RunConfig holds the externally supplied parameters of a simulation
// run. Created once per run, immutable thereafter; nothing in the core
// reads package-level configuration.
type RunConfig struct {
	InitialCapital     float64 // > 0
	CommissionPerTrade float64 // >= 0, flat per fill
	SlippagePct        float64 // >= 0, applied against the trader on both sides

	MaxPositionPct float64 // max position value as fraction of equity
	MaxRiskPct     float64 // max dollar risk per trade as fraction of equity
}

// DefaultRunConfig mirrors the stock research account defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		InitialCapital:     25000.0,
		CommissionPerTrade: 0.0,
		SlippagePct:        0.001, // 0.10% per side
		MaxPositionPct:     0.30,
		MaxRiskPct:         0.01,
	}
}

// Validate checks the run preconditions. Any error here indicates a
// caller bug, not a market condition.
func (c RunConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return ErrNonPositiveCapital
	}
	if c.CommissionPerTrade < 0 {
		return ErrNegativeCommission
	}
	if c.SlippagePct < 0 {
		return ErrNegativeSlippage
	}
	return nil
}

// RiskLimits holds the portfolio-level constraints enforced by the
// risk manager on the live/scan path.
type RiskLimits struct {
	MaxPositions       int
	MaxPositionPct     float64
	MaxRiskPct         float64
	MinStockPrice      float64
	MinAvgDollarVolume float64
	LeverageAllowed    bool
}

// DefaultRiskLimits mirrors the hard constraints of the research account.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositions:       2,
		MaxPositionPct:     0.30,
		MaxRiskPct:         0.01,
		MinStockPrice:      2.0,
		MinAvgDollarVolume: 1_000_000,
		LeverageAllowed:    false,
	}
}
