package strategy

import (
	"fmt"
	"math"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/indicators"
)

// Default momentum parameters.
const (
	DefaultMomentumLookback    = 20
	DefaultMomentumVolumeMult  = 1.5
	DefaultMomentumATRStopMult = 2.0
	DefaultMomentumTargetR     = 2.0
	DefaultMomentumTrailR      = 1.0
)

// MomentumStrategy enters on a breakout above the N-bar high on a
// volume surge, with trend confirmed by the slow EMA. Stops trail via
// the shared breakeven/ATR ratchet.
type MomentumStrategy struct {
	Lookback    int     // bars for breakout high detection
	VolumeMult  float64 // required volume multiple vs 20-bar average
	ATRStopMult float64 // stop distance in ATR multiples
	TargetR     float64 // target as r-multiple of initial risk
	TrailR      float64 // r-multiple at which the ATR trail engages
}

// NewMomentumStrategy creates a MomentumStrategy.
func NewMomentumStrategy(lookback int, volumeMult, atrStopMult, targetR, trailR float64) *MomentumStrategy {
	return &MomentumStrategy{
		Lookback:    lookback,
		VolumeMult:  volumeMult,
		ATRStopMult: atrStopMult,
		TargetR:     targetR,
		TrailR:      trailR,
	}
}

// ID returns the strategy identifier including parameters.
func (s *MomentumStrategy) ID() string {
	return fmt.Sprintf("MOMENTUM_lb%d_vol%.1f_atr%.1f_tgt%.1fR",
		s.Lookback, s.VolumeMult, s.ATRStopMult, s.TargetR)
}

// BaseType returns the canonical base strategy type.
func (s *MomentumStrategy) BaseType() string {
	return domain.StrategyTypeMomentum
}

// ProduceSignals marks bars where:
//  1. close breaks above the prior bar's rolling high,
//  2. volume exceeds VolumeMult times the rolling average,
//  3. close sits above the slow EMA.
//
// NaN indicators on early bars make every comparison false, so the
// warmup window never signals.
func (s *MomentumStrategy) ProduceSignals(bars []*domain.Bar) []*domain.Bar {
	out := copyBars(bars)

	for i := 1; i < len(out); i++ {
		bar := out[i]

		isBreakout := bar.Close > out[i-1].High20
		volumeSurge := bar.Volume > s.VolumeMult*bar.Volume20
		aboveEMA := bar.Close > bar.EMA20

		if !(isBreakout && volumeSurge && aboveEMA) {
			continue
		}

		entry := bar.Close
		stop := s.initialStop(out, i, entry)
		risk := entry - stop
		target := entry + risk*s.TargetR

		bar.Signal = &domain.Signal{
			Direction: domain.DirectionLong,
			Entry:     entry,
			Stop:      stop,
			Target:    target,
		}
	}

	return out
}

// initialStop is the higher of the prior-window high and the ATR stop,
// clamped to an emergency 3% stop when that lands at or above entry.
func (s *MomentumStrategy) initialStop(bars []*domain.Bar, i int, entry float64) float64 {
	lo := i - s.Lookback
	if lo < 0 {
		lo = 0
	}

	stop := math.Inf(-1)
	for _, b := range bars[lo:i] {
		if b.High > stop {
			stop = b.High
		}
	}

	if bars[i].HasATR() {
		atrStop := entry - bars[i].ATR14*s.ATRStopMult
		if atrStop > stop {
			stop = atrStop
		}
	}

	if stop >= entry || math.IsInf(stop, -1) {
		stop = entry * 0.97
	}

	return stop
}

// Scan checks the latest bar for a momentum setup.
func (s *MomentumStrategy) Scan(symbol string, bars []*domain.Bar) *Setup {
	if len(bars) < s.Lookback+20 {
		return nil
	}

	annotated := s.ProduceSignals(indicators.Annotate(bars))
	last := annotated[len(annotated)-1]
	if last.Signal == nil || !last.Signal.Valid() {
		return nil
	}

	volumeRatio := last.Volume / last.Volume20
	trendStrength := (last.Close - last.EMA20) / last.EMA20

	confidence := math.Min(
		(volumeRatio/s.VolumeMult)*0.5+math.Min(trendStrength*10, 1.0)*0.5,
		1.0,
	)

	return &Setup{
		Symbol:     symbol,
		SetupName:  "momentum_breakout",
		Entry:      last.Signal.Entry,
		Stop:       last.Signal.Stop,
		Target:     last.Signal.Target,
		Timeframe:  "intraday",
		Confidence: confidence,
		Notes: fmt.Sprintf("Breakout above %d-day high. Volume: %.1fx avg. R:R = 1:%.1f",
			s.Lookback, volumeRatio, s.TargetR),
	}
}

// EvaluateExit moves the stop to breakeven at +1R and trails it by
// ATR once the trade reaches TrailR.
func (s *MomentumStrategy) EvaluateExit(entryPrice, closePrice, atr, stopPrice float64) (bool, float64, string) {
	return evaluateTrailingExit(entryPrice, closePrice, atr, stopPrice, s.ATRStopMult, s.TrailR)
}

var _ Strategy = (*MomentumStrategy)(nil)
var _ ExitEvaluator = (*MomentumStrategy)(nil)
