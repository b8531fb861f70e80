package domain

// Strategy type constants.
const (
	StrategyTypeMomentum = "MOMENTUM"
	StrategyTypePullback = "PULLBACK"
)

// StrategyConfig represents strategy configuration parameters.
// Pointer fields are optional and validated per strategy type by the
// strategy factory.
type StrategyConfig struct {
	StrategyType string // "MOMENTUM" | "PULLBACK"

	// MOMENTUM parameters
	Lookback   *int     // bars for breakout high detection
	VolumeMult *float64 // required volume multiple vs average

	// PULLBACK parameters
	EMAPeriod     *int
	VolumeDecline *float64 // pullback volume threshold vs prior bar

	// Common parameters
	ATRStopMult *float64 // stop distance in ATR multiples
	TargetR     *float64 // target as r-multiple of initial risk
	TrailR      *float64 // r-multiple at which the ATR trail engages
}

// SignalLog records what happened to a scanned signal: executed,
// rejected by risk checks, or skipped by sizing. Journal entries are
// append-only.
type SignalLog struct {
	Timestamp  int64 // unix milliseconds
	Symbol     string
	StrategyID string
	Setup      string
	Entry      float64
	Stop       float64
	Target     float64
	Confidence float64
	Action     string // "executed" | "rejected" | "skipped"
	Reason     string
}

// Signal log action constants.
const (
	SignalActionExecuted = "executed"
	SignalActionRejected = "rejected"
	SignalActionSkipped  = "skipped"
)
