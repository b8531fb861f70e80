// Package metrics turns a finished trade ledger and equity curve into
// a performance report. Pure aggregation: nothing here mutates its
// inputs.
package metrics

import (
	"math"
	"time"

	"swing-trade-lab/internal/domain"
)

// Analyze derives the full performance report for one run. Degenerate
// inputs resolve to sentinel values (0, or +Inf for the profit factor
// with no losers) rather than arithmetic faults; a zero-trade run is a
// valid, reportable outcome.
func Analyze(
	strategyID string,
	symbol string,
	trades []*domain.Trade,
	curve []domain.EquityPoint,
	initialCapital float64,
	start time.Time,
	end time.Time,
) *domain.PerformanceReport {
	report := &domain.PerformanceReport{
		StrategyID: strategyID,
		Symbol:     symbol,
		StartDate:  start,
		EndDate:    end,
	}

	var wins, losses int
	var grossProfit, grossLoss float64
	var sumWin, sumLoss, sumR float64
	var largestWin, largestLoss float64
	var tradeDays float64

	for i, t := range trades {
		if t.NetPnL > 0 {
			wins++
			grossProfit += t.NetPnL
			sumWin += t.NetPnL
		} else if t.NetPnL < 0 {
			losses++
			grossLoss += -t.NetPnL
			sumLoss += t.NetPnL
		}

		sumR += t.RMultiple
		tradeDays += t.HoldingDays()
		report.TotalCommission += t.Commission
		report.TotalSlippage += t.Slippage

		if i == 0 {
			largestWin = t.NetPnL
			largestLoss = t.NetPnL
		} else {
			largestWin = math.Max(largestWin, t.NetPnL)
			largestLoss = math.Min(largestLoss, t.NetPnL)
		}
	}

	n := len(trades)
	report.TotalTrades = n
	report.WinningTrades = wins
	report.LosingTrades = losses
	report.WinRate = computeWinRate(wins, n)

	finalEquity := initialCapital
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}
	report.TotalReturn = finalEquity - initialCapital
	if initialCapital > 0 {
		report.TotalReturnPct = report.TotalReturn / initialCapital
	}
	report.CAGR = computeCAGR(finalEquity, initialCapital, start, end)

	report.MaxDrawdown, report.MaxDrawdownPct = computeMaxDrawdown(curve)
	report.SharpeRatio = computeSharpe(curve)

	if grossLoss > 0 {
		report.ProfitFactor = grossProfit / grossLoss
	} else {
		report.ProfitFactor = math.Inf(1)
	}

	if wins > 0 {
		report.AvgWin = sumWin / float64(wins)
	}
	if losses > 0 {
		report.AvgLoss = sumLoss / float64(losses)
	}
	if n > 0 {
		report.AvgRMultiple = sumR / float64(n)
		report.LargestWin = largestWin
		report.LargestLoss = largestLoss
	}

	// Whole days on both sides: holding spans truncate, and so does
	// the run window.
	totalDays := math.Floor(end.Sub(start).Hours() / 24)
	if totalDays > 0 {
		report.AvgExposure = tradeDays / totalDays
	}

	return report
}

// computeWinRate is winners over total, 0 for an empty ledger.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeCAGR annualizes the total return over the run window.
// Defined as 0 when the window is empty or inverted, or when there is
// no capital base to grow from.
func computeCAGR(finalEquity, initialCapital float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 || initialCapital <= 0 {
		return 0
	}
	return math.Pow(finalEquity/initialCapital, 1/years) - 1
}

// computeMaxDrawdown walks the equity curve tracking the running
// maximum. The percentage divides by the running maximum at the point
// the maximum drawdown occurred, not the overall peak.
func computeMaxDrawdown(curve []domain.EquityPoint) (float64, float64) {
	if len(curve) == 0 {
		return 0, 0
	}

	runningMax := curve[0].Equity
	maxDrawdown := 0.0
	peakAtMaxDrawdown := runningMax

	for _, p := range curve {
		if p.Equity > runningMax {
			runningMax = p.Equity
		}
		drawdown := runningMax - p.Equity
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
			peakAtMaxDrawdown = runningMax
		}
	}

	if maxDrawdown <= 0 || peakAtMaxDrawdown <= 0 {
		return maxDrawdown, 0
	}
	return maxDrawdown, maxDrawdown / peakAtMaxDrawdown
}

// computeSharpe annualizes the mean over stddev of period-over-period
// equity-curve returns by sqrt(252). 0 with fewer than two return
// observations or zero variance. Sample stddev (n-1 denominator).
func computeSharpe(curve []domain.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0 // fewer than 2 period returns
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			return 0
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	sumSq := 0.0
	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}
	stddev := math.Sqrt(sumSq / float64(len(returns)-1))
	if stddev == 0 {
		return 0
	}

	return mean / stddev * math.Sqrt(252)
}
