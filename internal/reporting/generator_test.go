package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage/memory"
)

var testClock = func() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func seedTrade(id string, entryDay, exitDay int, netPnL, rMultiple float64) *domain.Trade {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return &domain.Trade{
		TradeID:       id,
		Symbol:        "AAPL",
		StrategyID:    "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R",
		EntryTime:     base.AddDate(0, 0, entryDay),
		EntryPrice:    100,
		Shares:        50,
		PositionValue: 5000,
		StopPrice:     95,
		TargetPrice:   110,
		ExitTime:      base.AddDate(0, 0, exitDay),
		ExitPrice:     100 + netPnL/50,
		ExitReason:    domain.ExitReasonTarget,
		GrossPnL:      netPnL + 2,
		Commission:    2,
		Slippage:      5,
		NetPnL:        netPnL,
		ReturnPct:     netPnL / 5000,
		RMultiple:     rMultiple,
		EquityAfter:   25000 + netPnL,
	}
}

func seedStores(t *testing.T) (*memory.TradeStore, *memory.EquityCurveStore) {
	t.Helper()
	ctx := context.Background()

	trades := memory.NewTradeStore()
	require.NoError(t, trades.InsertBulk(ctx, []*domain.Trade{
		seedTrade("t-1", 0, 5, 498, 2),
		seedTrade("t-2", 10, 12, -252, -1),
	}))

	equity := memory.NewEquityCurveStore()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, equity.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: base, Equity: 25000},
		{Timestamp: base.AddDate(0, 0, 5), Equity: 25498},
		{Timestamp: base.AddDate(0, 0, 12), Equity: 25246},
	}))

	return trades, equity
}

func testParams() Params {
	return Params{
		RunID:          "run-1",
		StrategyID:     "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R",
		Symbol:         "AAPL",
		InitialCapital: 25000,
		StartDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	trades, equity := seedStores(t)
	gen := NewGenerator(trades, equity).WithClock(testClock)

	report, err := gen.Generate(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, testClock(), report.GeneratedAt)
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Trades, 2)
	require.Len(t, report.EquityCurve, 3)
	assert.False(t, report.NoTrades())

	p := report.Performance
	assert.Equal(t, 2, p.TotalTrades)
	assert.Equal(t, 1, p.WinningTrades)
	assert.Equal(t, 1, p.LosingTrades)
	assert.InDelta(t, 0.5, p.WinRate, 1e-9)
	assert.InDelta(t, 246, p.TotalReturn, 1e-9)
}

func TestGenerateFiltersSymbol(t *testing.T) {
	trades, equity := seedStores(t)

	other := seedTrade("t-3", 20, 22, 100, 0.5)
	other.Symbol = "MSFT"
	require.NoError(t, trades.Insert(context.Background(), other))

	gen := NewGenerator(trades, equity).WithClock(testClock)
	report, err := gen.Generate(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, report.Trades, 2)
	for _, tr := range report.Trades {
		assert.Equal(t, "AAPL", tr.Symbol)
	}
}

func TestGenerateMissingRun(t *testing.T) {
	trades, equity := seedStores(t)
	gen := NewGenerator(trades, equity).WithClock(testClock)

	p := testParams()
	p.RunID = "missing"
	_, err := gen.Generate(context.Background(), p)
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	trades, equity := seedStores(t)
	gen := NewGenerator(trades, equity).WithClock(testClock)

	report, err := gen.Generate(context.Background(), testParams())
	require.NoError(t, err)

	md := RenderMarkdown(report)
	assert.Contains(t, md, "# Backtest Report")
	assert.Contains(t, md, "Run: run-1")
	assert.Contains(t, md, "| Total Trades | 2 |")
	assert.Contains(t, md, "| Win Rate | 50.0% |")
	assert.Contains(t, md, "2024-01-02")
	assert.NotContains(t, md, "No trades generated")
}

func TestRenderMarkdownNoTrades(t *testing.T) {
	report := FromResult("run-empty",
		&domain.PerformanceReport{
			StrategyID: "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R",
			Symbol:     "AAPL",
			StartDate:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		nil, nil)

	md := RenderMarkdown(report)
	assert.Contains(t, md, "**No trades generated.**")
	assert.Contains(t, md, "No trades in ledger.")
	assert.Contains(t, md, "No equity curve recorded.")
}

func TestRenderMarkdownInfiniteProfitFactor(t *testing.T) {
	trades := memory.NewTradeStore()
	equity := memory.NewEquityCurveStore()
	ctx := context.Background()

	require.NoError(t, trades.Insert(ctx, seedTrade("t-1", 0, 5, 498, 2)))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, equity.InsertBulk(ctx, "run-1", []domain.EquityPoint{
		{Timestamp: base, Equity: 25000},
		{Timestamp: base.AddDate(0, 0, 5), Equity: 25498},
	}))

	gen := NewGenerator(trades, equity).WithClock(testClock)
	report, err := gen.Generate(ctx, testParams())
	require.NoError(t, err)

	md := RenderMarkdown(report)
	assert.Contains(t, md, "| Profit Factor | inf |")
}

func TestRenderTradesCSV(t *testing.T) {
	csv := RenderTradesCSV([]*domain.Trade{seedTrade("t-1", 0, 5, 498, 2)})

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "trade_id,symbol,strategy_id,entry_time"))
	assert.Contains(t, lines[1], "t-1,AAPL,")
	assert.Contains(t, lines[1], "target")

	// Column counts match between header and row.
	assert.Equal(t, len(strings.Split(lines[0], ",")), len(strings.Split(lines[1], ",")))
}

func TestRenderEquityCSV(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	csv := RenderEquityCSV([]domain.EquityPoint{
		{Timestamp: base, Equity: 25000},
		{Timestamp: base.AddDate(0, 0, 5), Equity: 25498},
	})

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,equity", lines[0])
	assert.Contains(t, lines[1], "25000.000000")
}
