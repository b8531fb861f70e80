// Package risk enforces portfolio-level limits on proposed trades.
// The pre-trade check is advisory during backtests (the simulator's
// single-position model already enforces the strictest version of
// these caps) and authoritative on the live-order path.
package risk

import (
	"fmt"
	"math"

	"swing-trade-lab/internal/domain"
)

// OpenPosition describes one currently held position for check purposes.
type OpenPosition struct {
	Symbol      string
	Shares      int
	MarketValue float64
	// UnrealizedPLPct is the unrealized P&L as a fraction of cost basis.
	UnrealizedPLPct float64
}

// LiquidityInfo carries the liquidity figures of a candidate symbol.
type LiquidityInfo struct {
	AvgDollarVolume float64
}

// Manager runs the risk-check battery against account state.
type Manager struct {
	equity float64
	limits domain.RiskLimits
}

// NewManager creates a risk manager for the given equity and limits.
func NewManager(equity float64, limits domain.RiskLimits) *Manager {
	return &Manager{equity: equity, limits: limits}
}

// CheckPreTrade runs the full ordered battery and accumulates every
// failure so the caller sees all violations at once. liquidity may be
// nil when the caller has no liquidity data; that check is skipped.
// On success, reasons holds a single affirmative message.
func (m *Manager) CheckPreTrade(
	symbol string,
	entryPrice float64,
	positionValue float64,
	riskDollars float64,
	openPositions []OpenPosition,
	liquidity *LiquidityInfo,
) (bool, []string) {
	var reasons []string
	approved := true

	// Check 1: maximum positions, exempt when adding to an existing symbol.
	if len(openPositions) >= m.limits.MaxPositions && !holdsSymbol(openPositions, symbol) {
		approved = false
		reasons = append(reasons, fmt.Sprintf(
			"max positions (%d) reached, currently holding %d",
			m.limits.MaxPositions, len(openPositions)))
	}

	// Check 2: position size limit.
	positionPct := positionValue / m.equity
	if positionPct > m.limits.MaxPositionPct {
		approved = false
		reasons = append(reasons, fmt.Sprintf(
			"position size %.1f%% exceeds max %.1f%%",
			positionPct*100, m.limits.MaxPositionPct*100))
	}

	// Check 3: risk limit.
	riskPct := riskDollars / m.equity
	if riskPct > m.limits.MaxRiskPct {
		approved = false
		reasons = append(reasons, fmt.Sprintf(
			"risk %.2f%% exceeds max %.2f%%",
			riskPct*100, m.limits.MaxRiskPct*100))
	}

	// Check 4: minimum price floor.
	if entryPrice < m.limits.MinStockPrice {
		approved = false
		reasons = append(reasons, fmt.Sprintf(
			"price $%.2f below minimum $%.2f",
			entryPrice, m.limits.MinStockPrice))
	}

	// Check 5: liquidity floor, only when liquidity info supplied.
	if liquidity != nil && liquidity.AvgDollarVolume < m.limits.MinAvgDollarVolume {
		approved = false
		reasons = append(reasons, fmt.Sprintf(
			"avg dollar volume $%.0f below minimum $%.0f",
			liquidity.AvgDollarVolume, m.limits.MinAvgDollarVolume))
	}

	// Check 6: aggregate exposure when leverage is disallowed. A small
	// margin absorbs share-count rounding.
	if !m.limits.LeverageAllowed {
		totalExposure := positionValue
		for _, p := range openPositions {
			totalExposure += p.MarketValue
		}
		if totalExposure > m.equity*1.01 {
			approved = false
			reasons = append(reasons, fmt.Sprintf(
				"total exposure $%.0f would exceed equity $%.0f (leverage not allowed)",
				totalExposure, m.equity))
		}
	}

	// Check 7: duplicate position.
	if holdsSymbol(openPositions, symbol) {
		approved = false
		reasons = append(reasons, fmt.Sprintf("already have position in %s", symbol))
	}

	if approved {
		reasons = append(reasons, "all risk checks passed")
	}

	return approved, reasons
}

// CheckIntraday inspects held positions for stop failures and size
// drift. Returns a map of symbol to alert messages; symbols without
// alerts are absent.
func (m *Manager) CheckIntraday(positions []OpenPosition) map[string][]string {
	alerts := make(map[string][]string)

	for _, pos := range positions {
		var posAlerts []string

		if pos.UnrealizedPLPct < -0.02 {
			posAlerts = append(posAlerts, fmt.Sprintf(
				"large unrealized loss %.1f%%, verify stop is in place",
				pos.UnrealizedPLPct*100))
		}

		if pos.MarketValue > 0 {
			positionPct := pos.MarketValue / m.equity
			if positionPct > m.limits.MaxPositionPct*1.2 {
				posAlerts = append(posAlerts, fmt.Sprintf(
					"position size %.1f%% significantly exceeds limit %.1f%% after appreciation",
					positionPct*100, m.limits.MaxPositionPct*100))
			}
		}

		if len(posAlerts) > 0 {
			alerts[pos.Symbol] = posAlerts
		}
	}

	return alerts
}

// MaxShares returns the largest share count the limits allow for the
// given entry/stop pair, 0 when the pair is unusable.
func (m *Manager) MaxShares(entryPrice, stopPrice float64) int {
	if entryPrice <= stopPrice || entryPrice <= 0 || stopPrice <= 0 {
		return 0
	}

	riskPerShare := entryPrice - stopPrice
	sharesByRisk := int(math.Floor(m.equity * m.limits.MaxRiskPct / riskPerShare))
	sharesByPosition := int(math.Floor(m.equity * m.limits.MaxPositionPct / entryPrice))

	return min(sharesByRisk, sharesByPosition)
}

func holdsSymbol(positions []OpenPosition, symbol string) bool {
	for _, p := range positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}
