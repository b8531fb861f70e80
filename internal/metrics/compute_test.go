package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swing-trade-lab/internal/domain"
)

const testStrategyID = "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R"

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func closedTrade(entryDay, exitDay int, netPnL, rMultiple float64) *domain.Trade {
	return &domain.Trade{
		Symbol:     "AAPL",
		StrategyID: testStrategyID,
		EntryTime:  day(entryDay),
		ExitTime:   day(exitDay),
		NetPnL:     netPnL,
		GrossPnL:   netPnL + 2,
		Commission: 2,
		Slippage:   5,
		RMultiple:  rMultiple,
	}
}

func curveFrom(initial float64, points ...[2]float64) []domain.EquityPoint {
	curve := []domain.EquityPoint{{Timestamp: day(0), Equity: initial}}
	for _, p := range points {
		curve = append(curve, domain.EquityPoint{
			Timestamp: day(int(p[0])),
			Equity:    p[1],
		})
	}
	return curve
}

func TestAnalyzeEmptyLedger(t *testing.T) {
	report := Analyze(testStrategyID, "AAPL", nil, curveFrom(25000), 25000, day(0), day(100))

	assert.Equal(t, 0, report.TotalTrades)
	assert.Equal(t, 0.0, report.WinRate)
	assert.Equal(t, 0.0, report.TotalReturn)
	assert.Equal(t, 0.0, report.CAGR)
	assert.Equal(t, 0.0, report.MaxDrawdown)
	assert.Equal(t, 0.0, report.SharpeRatio)
	assert.True(t, math.IsInf(report.ProfitFactor, 1))
	assert.Equal(t, 0.0, report.AvgRMultiple)
	assert.Equal(t, 0.0, report.AvgExposure)
}

func TestAnalyzeCounts(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade(0, 5, 500, 2.0),
		closedTrade(10, 12, -250, -1.0),
		closedTrade(20, 25, 300, 1.2),
		closedTrade(30, 31, 0, 0), // scratch trade: neither winner nor loser
	}
	curve := curveFrom(25000, [2]float64{5, 25500}, [2]float64{12, 25250},
		[2]float64{25, 25550}, [2]float64{31, 25550})

	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(40))

	assert.Equal(t, 4, report.TotalTrades)
	assert.Equal(t, 2, report.WinningTrades)
	assert.Equal(t, 1, report.LosingTrades)
	assert.Equal(t, 0.5, report.WinRate)
	assert.Equal(t, 400.0, report.AvgWin)
	assert.Equal(t, -250.0, report.AvgLoss)
	assert.InDelta(t, 2.2/4, report.AvgRMultiple, 1e-9)
	assert.Equal(t, 500.0, report.LargestWin)
	assert.Equal(t, -250.0, report.LargestLoss)
	assert.Equal(t, 8.0, report.TotalCommission)
	assert.Equal(t, 20.0, report.TotalSlippage)
}

func TestAnalyzeReturns(t *testing.T) {
	curve := curveFrom(25000, [2]float64{100, 27500})
	trades := []*domain.Trade{closedTrade(0, 100, 2500, 2.0)}

	// One 366-day year, ~10% gain.
	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(366))

	assert.Equal(t, 2500.0, report.TotalReturn)
	assert.InDelta(t, 0.10, report.TotalReturnPct, 1e-9)
	years := 366.0 / 365.25
	assert.InDelta(t, math.Pow(1.10, 1/years)-1, report.CAGR, 1e-9)
}

func TestAnalyzeCAGRZeroWindow(t *testing.T) {
	report := Analyze(testStrategyID, "AAPL", nil, curveFrom(30000), 25000, day(0), day(0))
	assert.Equal(t, 0.0, report.CAGR)
}

func TestMaxDrawdownDenominatorAtPeak(t *testing.T) {
	// Rise to 30000, drop to 24000 (drawdown 6000 against peak 30000),
	// recover to 40000, then dip to 36000 (only 4000).
	curve := curveFrom(25000,
		[2]float64{1, 30000},
		[2]float64{2, 24000},
		[2]float64{3, 40000},
		[2]float64{4, 36000},
	)

	dd, ddPct := computeMaxDrawdown(curve)

	assert.Equal(t, 6000.0, dd)
	// Divided by the running max where the max drawdown occurred, not
	// the overall 40000 peak.
	assert.InDelta(t, 6000.0/30000.0, ddPct, 1e-9)
}

func TestMaxDrawdownMonotonicCurve(t *testing.T) {
	curve := curveFrom(25000, [2]float64{1, 26000}, [2]float64{2, 27000})

	dd, ddPct := computeMaxDrawdown(curve)
	assert.Equal(t, 0.0, dd)
	assert.Equal(t, 0.0, ddPct)
}

func TestMaxDrawdownPctRange(t *testing.T) {
	curve := curveFrom(25000,
		[2]float64{1, 31000},
		[2]float64{2, 8000},
		[2]float64{3, 29000},
		[2]float64{4, 12000},
	)

	_, ddPct := computeMaxDrawdown(curve)
	assert.GreaterOrEqual(t, ddPct, 0.0)
	assert.LessOrEqual(t, ddPct, 1.0)
}

func TestSharpeNeedsTwoReturns(t *testing.T) {
	assert.Equal(t, 0.0, computeSharpe(curveFrom(25000)))
	assert.Equal(t, 0.0, computeSharpe(curveFrom(25000, [2]float64{1, 26000})))
}

func TestSharpeZeroVariance(t *testing.T) {
	// Identical period returns: +10% each step.
	curve := curveFrom(25000, [2]float64{1, 27500}, [2]float64{2, 30250})
	assert.Equal(t, 0.0, computeSharpe(curve))
}

func TestSharpeKnownValue(t *testing.T) {
	// Period returns +10% then +5%.
	curve := curveFrom(25000, [2]float64{1, 27500}, [2]float64{2, 28875})

	got := computeSharpe(curve)

	mean := (0.10 + 0.05) / 2
	stddev := math.Sqrt(2 * 0.025 * 0.025) // sample stddev of {0.10, 0.05}
	expected := mean / stddev * math.Sqrt(252)
	assert.InDelta(t, expected, got, 1e-9)
	assert.Positive(t, got)
}

func TestProfitFactor(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade(0, 1, 600, 2.0),
		closedTrade(2, 3, -200, -1.0),
		closedTrade(4, 5, -100, -1.0),
	}
	curve := curveFrom(25000, [2]float64{1, 25600}, [2]float64{3, 25400}, [2]float64{5, 25300})

	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(10))
	assert.InDelta(t, 2.0, report.ProfitFactor, 1e-9)
}

func TestProfitFactorNoLosers(t *testing.T) {
	trades := []*domain.Trade{closedTrade(0, 1, 600, 2.0)}
	curve := curveFrom(25000, [2]float64{1, 25600})

	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(10))
	assert.True(t, math.IsInf(report.ProfitFactor, 1))
}

func TestExposure(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade(0, 5, 100, 1.0),
		closedTrade(10, 15, 100, 1.0),
	}
	curve := curveFrom(25000, [2]float64{5, 25100}, [2]float64{15, 25200})

	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(20))
	assert.InDelta(t, 0.5, report.AvgExposure, 1e-9)
}

// Intraday remainders never inflate exposure: holding spans count
// whole days only.
func TestExposureTruncatesPartialDays(t *testing.T) {
	tr := closedTrade(0, 5, 100, 1.0)
	tr.ExitTime = tr.ExitTime.Add(18 * time.Hour)
	curve := curveFrom(25000, [2]float64{6, 25100})

	report := Analyze(testStrategyID, "AAPL", []*domain.Trade{tr}, curve, 25000, day(0), day(10))
	assert.InDelta(t, 0.5, report.AvgExposure, 1e-9)
}

// Zero capital resolves the ratio metrics to 0 like the other
// degenerate-input sentinels.
func TestAnalyzeZeroCapital(t *testing.T) {
	report := Analyze(testStrategyID, "AAPL", nil, curveFrom(1000), 0, day(0), day(10))

	assert.Equal(t, 1000.0, report.TotalReturn)
	assert.Equal(t, 0.0, report.TotalReturnPct)
	assert.Equal(t, 0.0, report.CAGR)
}

func TestAnalyzeIdentity(t *testing.T) {
	trades := []*domain.Trade{closedTrade(0, 3, 450, 1.8)}
	curve := curveFrom(25000, [2]float64{3, 25450})

	report := Analyze(testStrategyID, "AAPL", trades, curve, 25000, day(0), day(30))

	require.Equal(t, testStrategyID, report.StrategyID)
	require.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, day(0), report.StartDate)
	assert.Equal(t, day(30), report.EndDate)
	assert.InDelta(t, report.TotalReturn/25000, report.TotalReturnPct, 1e-12)
}
