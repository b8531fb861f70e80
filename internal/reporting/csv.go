package reporting

import (
	"fmt"
	"strings"
	"time"

	"swing-trade-lab/internal/domain"
)

// RenderTradesCSV renders the closed-trade ledger as a CSV string.
func RenderTradesCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,symbol,strategy_id,entry_time,entry_price,shares,position_value,")
	sb.WriteString("stop_price,target_price,exit_time,exit_price,exit_reason,")
	sb.WriteString("gross_pnl,commission,slippage,net_pnl,return_pct,r_multiple,equity_after\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.6f,%d,%.6f,%.6f,%.6f,%s,%.6f,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			t.TradeID,
			t.Symbol,
			t.StrategyID,
			t.EntryTime.Format(time.RFC3339),
			t.EntryPrice,
			t.Shares,
			t.PositionValue,
			t.StopPrice,
			t.TargetPrice,
			t.ExitTime.Format(time.RFC3339),
			t.ExitPrice,
			t.ExitReason,
			t.GrossPnL,
			t.Commission,
			t.Slippage,
			t.NetPnL,
			t.ReturnPct,
			t.RMultiple,
			t.EquityAfter,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as a CSV string.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp,equity\n")
	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%s,%.6f\n", p.Timestamp.Format(time.RFC3339), p.Equity))
	}

	return sb.String()
}
