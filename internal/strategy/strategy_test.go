package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/indicators"
)

func dailyBars(t *testing.T, rows [][5]float64) []*domain.Bar {
	t.Helper()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]*domain.Bar, len(rows))
	for i, r := range rows {
		bars[i] = &domain.Bar{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      r[0],
			High:      r[1],
			Low:       r[2],
			Close:     r[3],
			Volume:    r[4],
		}
	}
	return bars
}

// consolidation then breakout: flat closes at 100, one surge bar.
func breakoutSeries(t *testing.T, flatBars int, breakoutVolume float64) []*domain.Bar {
	t.Helper()
	rows := make([][5]float64, 0, flatBars+1)
	for i := 0; i < flatBars; i++ {
		rows = append(rows, [5]float64{100, 101, 99, 100, 1e6})
	}
	rows = append(rows, [5]float64{105, 111, 104, 110, breakoutVolume})
	return dailyBars(t, rows)
}

func TestMomentumSignalOnBreakout(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	bars := indicators.Annotate(breakoutSeries(t, 30, 3e6))
	out := s.ProduceSignals(bars)

	last := out[len(out)-1]
	require.NotNil(t, last.Signal)
	assert.Equal(t, domain.DirectionLong, last.Signal.Direction)
	assert.Equal(t, 110.0, last.Signal.Entry)

	// Stop is the ATR stop (above the 101 prior-window high), target
	// two risk units above entry.
	expectedStop := 110.0 - last.ATR14*DefaultMomentumATRStopMult
	assert.InDelta(t, expectedStop, last.Signal.Stop, 1e-9)
	assert.Less(t, last.Signal.Stop, last.Signal.Entry)
	risk := last.Signal.Entry - last.Signal.Stop
	assert.InDelta(t, last.Signal.Entry+2*risk, last.Signal.Target, 1e-9)

	// No signal on the quiet bars before the breakout.
	for _, b := range out[:len(out)-1] {
		assert.Nil(t, b.Signal)
	}
}

func TestMomentumNoSignalWithoutVolumeSurge(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	bars := indicators.Annotate(breakoutSeries(t, 30, 1e6))
	out := s.ProduceSignals(bars)

	assert.Nil(t, out[len(out)-1].Signal)
}

func TestMomentumNoSignalDuringWarmup(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	// Breakout on bar 10, before the rolling windows have filled.
	bars := indicators.Annotate(breakoutSeries(t, 10, 3e6))
	out := s.ProduceSignals(bars)

	for _, b := range out {
		assert.Nil(t, b.Signal)
	}
}

func TestMomentumProduceSignalsDoesNotMutateInput(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	bars := indicators.Annotate(breakoutSeries(t, 30, 3e6))
	_ = s.ProduceSignals(bars)

	for _, b := range bars {
		assert.Nil(t, b.Signal)
	}
}

func TestMomentumScan(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	setup := s.Scan("TEST", breakoutSeries(t, 39, 3e6))
	require.NotNil(t, setup)
	assert.Equal(t, "TEST", setup.Symbol)
	assert.Equal(t, "momentum_breakout", setup.SetupName)
	assert.Equal(t, 110.0, setup.Entry)
	assert.Greater(t, setup.Confidence, 0.0)
	assert.LessOrEqual(t, setup.Confidence, 1.0)

	// Insufficient history.
	assert.Nil(t, s.Scan("TEST", breakoutSeries(t, 10, 3e6)))

	// No setup on the latest bar.
	quiet := breakoutSeries(t, 39, 1e6)
	assert.Nil(t, s.Scan("TEST", quiet))
}

func TestEvaluateExitBreakevenAndTrail(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	// Below +1R nothing moves.
	exit, newStop, reason := s.EvaluateExit(100, 102, 1.0, 95)
	assert.False(t, exit)
	assert.Equal(t, 95.0, newStop)
	assert.Empty(t, reason)

	// At +1R the stop goes to breakeven, and with the momentum trail
	// engaging at +1R the ATR trail can lift it further.
	exit, newStop, _ = s.EvaluateExit(100, 105, 1.0, 95)
	assert.False(t, exit)
	assert.InDelta(t, 103.0, newStop, 1e-9) // 105 - 1.0*2.0

	// A wide ATR keeps the trail below breakeven.
	exit, newStop, _ = s.EvaluateExit(100, 105, 5.0, 95)
	assert.False(t, exit)
	assert.Equal(t, 100.0, newStop)

	// Close through the stop exits.
	exit, newStop, reason = s.EvaluateExit(100, 94, 1.0, 95)
	assert.True(t, exit)
	assert.Equal(t, 95.0, newStop)
	assert.Equal(t, domain.ExitReasonTrailingStop, reason)
}

// Evaluated against the original stop every bar, the trail keeps
// rising with price instead of freezing after breakeven.
func TestEvaluateExitTrailFollowsRally(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	closes := []float64{105, 110, 120, 150}
	want := []float64{103, 108, 118, 148} // close - 1.0*2.0
	prev := 0.0
	for i, c := range closes {
		exit, newStop, _ := s.EvaluateExit(100, c, 1.0, 95)
		assert.False(t, exit)
		assert.InDelta(t, want[i], newStop, 1e-9)
		assert.Greater(t, newStop, prev)
		prev = newStop
	}
}

func TestEvaluateExitZeroRisk(t *testing.T) {
	s := NewMomentumStrategy(DefaultMomentumLookback, DefaultMomentumVolumeMult,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)

	// A degenerate signal with the stop at the entry has zero initial
	// risk; the r-multiple pins to 0 and the policy holds. Real trades
	// never hit this: the simulator always passes the original stop,
	// which validation keeps strictly below the entry.
	exit, newStop, _ := s.EvaluateExit(100, 150, 1.0, 100)
	assert.False(t, exit)
	assert.Equal(t, 100.0, newStop)
}

func TestPullbackTrailEngagesLater(t *testing.T) {
	p := NewPullbackStrategy(DefaultPullbackEMAPeriod, DefaultPullbackVolumeDecline,
		DefaultPullbackATRStopMult, DefaultPullbackTargetR, DefaultPullbackTrailR)

	// +1R: breakeven only, the pullback trail waits for +1.5R.
	exit, newStop, _ := p.EvaluateExit(100, 105, 1.0, 95)
	assert.False(t, exit)
	assert.Equal(t, 100.0, newStop)

	// +1.5R: trail engages.
	exit, newStop, _ = p.EvaluateExit(100, 107.5, 1.0, 95)
	assert.False(t, exit)
	assert.InDelta(t, 105.5, newStop, 1e-9) // 107.5 - 1.0*2.0

	// And keeps climbing with price on later bars.
	exit, newStop, _ = p.EvaluateExit(100, 120, 1.0, 95)
	assert.False(t, exit)
	assert.InDelta(t, 118.0, newStop, 1e-9)
}

// pullbackFixture hand-annotates indicators so the rebreak pattern is
// fully controlled: breakout at bar 3, EMA touch with fading volume in
// bars 7..9, rebreak on bar 11.
func pullbackFixture(t *testing.T) []*domain.Bar {
	t.Helper()
	rows := [][5]float64{
		{100, 101, 99.0, 100, 2.0e6},
		{100, 101, 99.0, 100, 2.0e6},
		{100, 101, 99.0, 100, 2.0e6},
		{103, 105, 102.0, 104, 2.5e6}, // breakout bar
		{104, 104.5, 103.0, 104, 2.5e6},
		{104, 104.5, 103.0, 104, 2.0e6},
		{104, 104.5, 103.0, 103, 2.0e6},
		{103, 103.5, 101.0, 102, 1.5e6}, // volume fading
		{102, 102.5, 100.5, 101, 1.2e6}, // touches the EMA
		{101, 101.5, 101.0, 101, 1.0e6},
		{101, 103.0, 101.5, 101, 0.9e6},
		{102, 104.5, 102.5, 104, 1.5e6}, // rebreak on rising volume
	}
	bars := dailyBars(t, rows)
	for _, b := range bars {
		b.EMA20 = 100
		b.High20 = 102
		b.ATR14 = 1.0
		b.SMA20 = 100
		b.SMA50 = math.NaN()
		b.EMA10 = 100
		b.Low20 = 99
		b.Volume20 = 1.8e6
	}
	return bars
}

func TestPullbackSignalOnRebreak(t *testing.T) {
	p := NewPullbackStrategy(DefaultPullbackEMAPeriod, DefaultPullbackVolumeDecline,
		DefaultPullbackATRStopMult, DefaultPullbackTargetR, DefaultPullbackTrailR)

	out := p.ProduceSignals(pullbackFixture(t))

	last := out[len(out)-1]
	require.NotNil(t, last.Signal)
	assert.Equal(t, 104.0, last.Signal.Entry)
	// ATR stop (104 - 2.0) sits above the 100.5 pullback low.
	assert.InDelta(t, 102.0, last.Signal.Stop, 1e-9)
	assert.InDelta(t, 108.0, last.Signal.Target, 1e-9)

	for _, b := range out[:len(out)-1] {
		assert.Nil(t, b.Signal)
	}
}

func TestPullbackNoSignalWithoutRisingVolume(t *testing.T) {
	p := NewPullbackStrategy(DefaultPullbackEMAPeriod, DefaultPullbackVolumeDecline,
		DefaultPullbackATRStopMult, DefaultPullbackTargetR, DefaultPullbackTrailR)

	bars := pullbackFixture(t)
	bars[len(bars)-1].Volume = 0.5e6

	out := p.ProduceSignals(bars)
	assert.Nil(t, out[len(out)-1].Signal)
}

func TestPullbackScanInsufficientData(t *testing.T) {
	p := NewPullbackStrategy(DefaultPullbackEMAPeriod, DefaultPullbackVolumeDecline,
		DefaultPullbackATRStopMult, DefaultPullbackTargetR, DefaultPullbackTrailR)

	assert.Nil(t, p.Scan("TEST", pullbackFixture(t)))
}

func TestStrategyIDs(t *testing.T) {
	m := NewMomentumStrategy(20, 1.5, 2.0, 2.0, 1.0)
	p := NewPullbackStrategy(20, 0.8, 2.0, 2.0, 1.5)

	assert.Equal(t, "MOMENTUM_lb20_vol1.5_atr2.0_tgt2.0R", m.ID())
	assert.Equal(t, "PULLBACK_ema20_vol0.8_atr2.0_tgt2.0R", p.ID())
	assert.Equal(t, domain.StrategyTypeMomentum, m.BaseType())
	assert.Equal(t, domain.StrategyTypePullback, p.BaseType())
}
