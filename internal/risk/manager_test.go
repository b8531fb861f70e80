package risk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swing-trade-lab/internal/domain"
)

func newTestManager(equity float64) *Manager {
	return NewManager(equity, domain.DefaultRiskLimits())
}

func TestCheckPreTradeApproved(t *testing.T) {
	m := newTestManager(25000)

	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 7000.0, 200.0, nil, nil)

	assert.True(t, approved)
	require.Len(t, reasons, 1)
	assert.Equal(t, "all risk checks passed", reasons[0])
}

func TestCheckPreTradeMaxPositions(t *testing.T) {
	m := newTestManager(25000)
	open := []OpenPosition{
		{Symbol: "MSFT", Shares: 10, MarketValue: 3000},
		{Symbol: "NVDA", Shares: 5, MarketValue: 2500},
	}

	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 7000.0, 200.0, open, nil)

	assert.False(t, approved)
	assert.Contains(t, reasons[0], "max positions")
}

func TestCheckPreTradeMaxPositionsSymbolExemption(t *testing.T) {
	m := newTestManager(25000)
	open := []OpenPosition{
		{Symbol: "AAPL", Shares: 10, MarketValue: 1500},
		{Symbol: "NVDA", Shares: 5, MarketValue: 2500},
	}

	// Adding to AAPL bypasses the count check but trips the duplicate check.
	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 3000.0, 200.0, open, nil)

	assert.False(t, approved)
	for _, r := range reasons {
		assert.NotContains(t, r, "max positions")
	}
	assert.Contains(t, reasons, "already have position in AAPL")
}

func TestCheckPreTradePositionSize(t *testing.T) {
	m := newTestManager(25000)

	// 40% of equity against a 30% cap.
	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 10000.0, 200.0, nil, nil)

	assert.False(t, approved)
	assert.Contains(t, reasons[0], "position size 40.0% exceeds max 30.0%")
}

func TestCheckPreTradeRiskLimit(t *testing.T) {
	m := newTestManager(25000)

	// $500 risk on $25k equity is 2%, above the 1% cap.
	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 7000.0, 500.0, nil, nil)

	assert.False(t, approved)
	assert.Contains(t, reasons[0], "risk 2.00% exceeds max 1.00%")
}

func TestCheckPreTradeMinPrice(t *testing.T) {
	m := newTestManager(25000)

	approved, reasons := m.CheckPreTrade("PNNY", 1.50, 500.0, 50.0, nil, nil)

	assert.False(t, approved)
	assert.Contains(t, reasons[0], "price $1.50 below minimum $2.00")
}

func TestCheckPreTradeLiquidity(t *testing.T) {
	m := newTestManager(25000)

	approved, reasons := m.CheckPreTrade("THIN", 10.0, 1000.0, 100.0, nil,
		&LiquidityInfo{AvgDollarVolume: 500000})

	assert.False(t, approved)
	assert.Contains(t, reasons[0], "avg dollar volume")

	// Without liquidity info the check is skipped entirely.
	approved, _ = m.CheckPreTrade("THIN", 10.0, 1000.0, 100.0, nil, nil)
	assert.True(t, approved)
}

func TestCheckPreTradeLeverage(t *testing.T) {
	m := newTestManager(25000)
	open := []OpenPosition{
		{Symbol: "MSFT", Shares: 50, MarketValue: 20000},
	}

	// 20000 held + 7000 proposed = 27000 > 25000 * 1.01.
	approved, reasons := m.CheckPreTrade("AAPL", 150.0, 7000.0, 200.0, open, nil)

	assert.False(t, approved)
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "total exposure") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckPreTradeLeverageAllowed(t *testing.T) {
	limits := domain.DefaultRiskLimits()
	limits.MaxPositions = 3
	limits.LeverageAllowed = true
	m := NewManager(25000, limits)
	open := []OpenPosition{
		{Symbol: "MSFT", Shares: 50, MarketValue: 20000},
	}

	approved, _ := m.CheckPreTrade("AAPL", 150.0, 7000.0, 200.0, open, nil)

	assert.True(t, approved)
}

func TestCheckPreTradeRoundingMargin(t *testing.T) {
	m := newTestManager(25000)
	open := []OpenPosition{
		{Symbol: "MSFT", Shares: 50, MarketValue: 18000},
	}

	// 18000 + 7200 = 25200, within the 1% rounding margin of 25250.
	approved, _ := m.CheckPreTrade("AAPL", 150.0, 7200.0, 200.0, open, nil)

	assert.True(t, approved)
}

func TestCheckPreTradeAccumulatesAllFailures(t *testing.T) {
	m := newTestManager(25000)
	open := []OpenPosition{
		{Symbol: "PNNY", Shares: 100, MarketValue: 150},
		{Symbol: "MSFT", Shares: 10, MarketValue: 3000},
	}

	// Cheap symbol, oversized position, oversized risk, thin liquidity,
	// duplicate holding. Every violation must be reported.
	approved, reasons := m.CheckPreTrade("PNNY", 1.50, 12000.0, 600.0, open,
		&LiquidityInfo{AvgDollarVolume: 100000})

	assert.False(t, approved)
	assert.GreaterOrEqual(t, len(reasons), 4)
}

func TestCheckIntraday(t *testing.T) {
	m := newTestManager(25000)
	positions := []OpenPosition{
		{Symbol: "AAPL", Shares: 10, MarketValue: 3000, UnrealizedPLPct: 0.01},
		{Symbol: "MSFT", Shares: 20, MarketValue: 5000, UnrealizedPLPct: -0.05},
		{Symbol: "NVDA", Shares: 30, MarketValue: 12000, UnrealizedPLPct: 0.40},
	}

	alerts := m.CheckIntraday(positions)

	assert.NotContains(t, alerts, "AAPL")
	require.Contains(t, alerts, "MSFT")
	assert.Contains(t, alerts["MSFT"][0], "unrealized loss")
	require.Contains(t, alerts, "NVDA")
	assert.Contains(t, alerts["NVDA"][0], "significantly exceeds limit")
}

func TestMaxShares(t *testing.T) {
	m := newTestManager(25000)

	// Risk cap: 250 / 5 = 50. Position cap: 7500 / 100 = 75.
	assert.Equal(t, 50, m.MaxShares(100.0, 95.0))

	// Position cap binds for a wide stop at a high price.
	// Risk cap: 250 / 50 = 5. Position cap: 7500 / 1000 = 7.
	assert.Equal(t, 5, m.MaxShares(1000.0, 950.0))

	assert.Equal(t, 0, m.MaxShares(95.0, 100.0))
	assert.Equal(t, 0, m.MaxShares(0, 0))
}
