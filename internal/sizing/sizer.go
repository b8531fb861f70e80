// Package sizing converts account equity and a proposed entry/stop
// pair into a share count that respects both the per-trade risk cap
// and the position-size cap.
package sizing

import (
	"fmt"
	"math"
)

// Result holds the outcome of a sizing calculation. When Valid is
// false, Reason explains the first failing check.
type Result struct {
	Shares        int
	PositionValue float64
	PositionPct   float64
	RiskDollars   float64
	RiskPct       float64
	RiskPerShare  float64
	Valid         bool
	Reason        string
}

// PositionSizer calculates position sizes from risk parameters.
// Pure: same inputs always give the same output.
type PositionSizer struct {
	equity         float64
	maxPositionPct float64
	maxRiskPct     float64
}

// NewPositionSizer creates a sizer for the given account equity and caps.
func NewPositionSizer(equity, maxPositionPct, maxRiskPct float64) *PositionSizer {
	return &PositionSizer{
		equity:         equity,
		maxPositionPct: maxPositionPct,
		maxRiskPct:     maxRiskPct,
	}
}

// Calculate determines the share count for a long entry. Validation
// short-circuits on the first failing check; the post-check re-verifies
// that integer rounding kept both ratios within their caps.
func (s *PositionSizer) Calculate(entryPrice, stopPrice float64) Result {
	var r Result

	if entryPrice <= 0 {
		r.Reason = "entry price must be positive"
		return r
	}
	if stopPrice <= 0 {
		r.Reason = "stop price must be positive"
		return r
	}
	if entryPrice <= stopPrice {
		r.Reason = "stop price must be below entry price (long only)"
		return r
	}
	if s.equity <= 0 {
		r.Reason = "equity must be positive"
		return r
	}

	riskPerShare := entryPrice - stopPrice
	r.RiskPerShare = riskPerShare

	sharesByRisk := int(math.Floor(s.equity * s.maxRiskPct / riskPerShare))
	sharesByPositionCap := int(math.Floor(s.equity * s.maxPositionPct / entryPrice))

	shares := min(sharesByRisk, sharesByPositionCap)
	if shares < 1 {
		r.Reason = "position size rounds to 0 shares (insufficient equity or risk too small)"
		return r
	}

	positionValue := float64(shares) * entryPrice
	positionPct := positionValue / s.equity
	riskDollars := float64(shares) * riskPerShare
	riskPct := riskDollars / s.equity

	if positionPct > s.maxPositionPct {
		r.Reason = fmt.Sprintf("position size %.1f%% exceeds max %.1f%%",
			positionPct*100, s.maxPositionPct*100)
		return r
	}
	if riskPct > s.maxRiskPct {
		r.Reason = fmt.Sprintf("risk %.2f%% exceeds max %.2f%%",
			riskPct*100, s.maxRiskPct*100)
		return r
	}

	return Result{
		Shares:        shares,
		PositionValue: positionValue,
		PositionPct:   positionPct,
		RiskDollars:   riskDollars,
		RiskPct:       riskPct,
		RiskPerShare:  riskPerShare,
		Valid:         true,
		Reason:        "OK",
	}
}

// TargetPrice computes a target from entry/stop at the given r-multiple.
func TargetPrice(entryPrice, stopPrice, rMultiple float64) float64 {
	risk := entryPrice - stopPrice
	return entryPrice + risk*rMultiple
}
