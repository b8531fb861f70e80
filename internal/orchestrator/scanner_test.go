package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/risk"
	"swing-trade-lab/internal/storage/memory"
)

// scanSeries ends on the breakout bar so Scan sees a live setup.
func scanSeries(symbol string) []*domain.Bar {
	bars := make([]*domain.Bar, 0, 61)
	for d := 0; d < 60; d++ {
		bars = append(bars, flatBar(symbol, d))
	}
	bars = append(bars, &domain.Bar{
		Symbol:    symbol,
		Timestamp: testStart.AddDate(0, 0, 60),
		Open:      100,
		High:      111,
		Low:       100,
		Close:     110,
		Volume:    5_000_000,
	})
	return bars
}

func newTestScanner(t *testing.T, logStore *memory.SignalLogStore) *Scanner {
	t.Helper()
	s, err := NewScanner(logStore, domain.DefaultRunConfig(), domain.DefaultRiskLimits(), momentumConfigs())
	require.NoError(t, err)
	return s
}

func TestScanExecutedSetup(t *testing.T) {
	ctx := context.Background()
	logStore := memory.NewSignalLogStore()
	s := newTestScanner(t, logStore)

	results, err := s.Scan(ctx, "AAPL", scanSeries("AAPL"), 25000, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "momentum_breakout", res.Setup.SetupName)
	assert.Equal(t, domain.SignalActionExecuted, res.Action)
	assert.True(t, res.Sizing.Valid)
	assert.Greater(t, res.Sizing.Shares, 0)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "all risk checks passed")

	logs, err := logStore.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SignalActionExecuted, logs[0].Action)
	assert.Equal(t, "momentum_breakout", logs[0].Setup)
	assert.Equal(t, res.Setup.Entry, logs[0].Entry)
}

func TestScanRejectedDuplicatePosition(t *testing.T) {
	ctx := context.Background()
	logStore := memory.NewSignalLogStore()
	s := newTestScanner(t, logStore)

	held := []risk.OpenPosition{{Symbol: "AAPL", Shares: 40, MarketValue: 4400}}
	results, err := s.Scan(ctx, "AAPL", scanSeries("AAPL"), 25000, held)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, domain.SignalActionRejected, res.Action)
	assert.NotEmpty(t, res.Reasons)

	logs, err := logStore.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SignalActionRejected, logs[0].Action)
	assert.Contains(t, logs[0].Reason, "already have position")
}

func TestScanSkippedWhenSizingInvalid(t *testing.T) {
	ctx := context.Background()
	logStore := memory.NewSignalLogStore()
	s := newTestScanner(t, logStore)

	// Equity too small for even one share under the position cap.
	results, err := s.Scan(ctx, "AAPL", scanSeries("AAPL"), 100, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, domain.SignalActionSkipped, res.Action)
	assert.False(t, res.Sizing.Valid)

	logs, err := logStore.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SignalActionSkipped, logs[0].Action)
}

func TestScanQuietSeriesNoSetups(t *testing.T) {
	ctx := context.Background()
	logStore := memory.NewSignalLogStore()
	s := newTestScanner(t, logStore)

	bars := make([]*domain.Bar, 0, 60)
	for d := 0; d < 60; d++ {
		bars = append(bars, flatBar("AAPL", d))
	}

	results, err := s.Scan(ctx, "AAPL", bars, 25000, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	logs, err := logStore.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestScanNilJournalStore(t *testing.T) {
	s, err := NewScanner(nil, domain.DefaultRunConfig(), domain.DefaultRiskLimits(), momentumConfigs())
	require.NoError(t, err)

	results, err := s.Scan(context.Background(), "AAPL", scanSeries("AAPL"), 25000, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestScanEmptySeries(t *testing.T) {
	s := newTestScanner(t, memory.NewSignalLogStore())
	_, err := s.Scan(context.Background(), "AAPL", nil, 25000, nil)
	assert.ErrorIs(t, err, ErrNoBars)
}
