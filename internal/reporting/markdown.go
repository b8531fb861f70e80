package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	p := r.Performance

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Strategy: %s | Symbol: %s\n\n", r.RunID, p.StrategyID, p.Symbol))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n",
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02")))

	if r.NoTrades() {
		sb.WriteString("**No trades generated.**\n\n")
	}

	// Performance Summary
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", p.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winners / Losers | %d / %d |\n", p.WinningTrades, p.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% |\n", p.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Total Return | $%.2f (%.2f%%) |\n", p.TotalReturn, p.TotalReturnPct*100))
	sb.WriteString(fmt.Sprintf("| CAGR | %.2f%% |\n", p.CAGR*100))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | $%.2f (%.2f%%) |\n", p.MaxDrawdown, p.MaxDrawdownPct*100))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.2f |\n", p.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(p.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Avg Win / Avg Loss | $%.2f / $%.2f |\n", p.AvgWin, p.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Avg R-Multiple | %.2f |\n", p.AvgRMultiple))
	sb.WriteString(fmt.Sprintf("| Largest Win / Loss | $%.2f / $%.2f |\n", p.LargestWin, p.LargestLoss))
	sb.WriteString(fmt.Sprintf("| Exposure | %.1f%% |\n", p.AvgExposure*100))
	sb.WriteString(fmt.Sprintf("| Commission / Slippage | $%.2f / $%.2f |\n", p.TotalCommission, p.TotalSlippage))
	sb.WriteString("\n")

	// Trade Ledger
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Entry | Exit | Symbol | Shares | Entry $ | Exit $ | Reason | Net P&L | R |\n")
		sb.WriteString("|-------|------|--------|--------|---------|--------|--------|---------|---|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.2f | %.2f | %s | %.2f | %.2f |\n",
				t.EntryTime.Format("2006-01-02"), t.ExitTime.Format("2006-01-02"),
				t.Symbol, t.Shares, t.EntryPrice, t.ExitPrice, t.ExitReason,
				t.NetPnL, t.RMultiple))
		}
	} else {
		sb.WriteString("No trades in ledger.\n")
	}
	sb.WriteString("\n")

	// Equity Curve
	sb.WriteString("## Equity Curve\n\n")
	if len(r.EquityCurve) > 0 {
		first := r.EquityCurve[0]
		last := r.EquityCurve[len(r.EquityCurve)-1]
		sb.WriteString(fmt.Sprintf("%d points, %s $%.2f to %s $%.2f\n",
			len(r.EquityCurve),
			first.Timestamp.Format("2006-01-02"), first.Equity,
			last.Timestamp.Format("2006-01-02"), last.Equity))
	} else {
		sb.WriteString("No equity curve recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatProfitFactor renders +Inf (no losing trades) readably.
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
