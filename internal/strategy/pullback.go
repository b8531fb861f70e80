package strategy

import (
	"fmt"
	"math"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/indicators"
)

// Default pullback parameters.
const (
	DefaultPullbackEMAPeriod     = 20
	DefaultPullbackVolumeDecline = 0.8
	DefaultPullbackATRStopMult   = 2.0
	DefaultPullbackTargetR       = 2.0
	DefaultPullbackTrailR        = 1.5
)

// PullbackStrategy enters after a confirmed breakout retraces to the
// EMA on fading volume and then re-breaks on rising volume. Stops
// trail via the shared breakeven/ATR ratchet, engaging later than the
// momentum variant.
type PullbackStrategy struct {
	EMAPeriod     int     // EMA period for the pullback level
	VolumeDecline float64 // pullback volume threshold vs prior bar
	ATRStopMult   float64 // stop distance in ATR multiples
	TargetR       float64 // target as r-multiple of initial risk
	TrailR        float64 // r-multiple at which the ATR trail engages
}

// NewPullbackStrategy creates a PullbackStrategy.
func NewPullbackStrategy(emaPeriod int, volumeDecline, atrStopMult, targetR, trailR float64) *PullbackStrategy {
	return &PullbackStrategy{
		EMAPeriod:     emaPeriod,
		VolumeDecline: volumeDecline,
		ATRStopMult:   atrStopMult,
		TargetR:       targetR,
		TrailR:        trailR,
	}
}

// ID returns the strategy identifier including parameters.
func (s *PullbackStrategy) ID() string {
	return fmt.Sprintf("PULLBACK_ema%d_vol%.1f_atr%.1f_tgt%.1fR",
		s.EMAPeriod, s.VolumeDecline, s.ATRStopMult, s.TargetR)
}

// BaseType returns the canonical base strategy type.
func (s *PullbackStrategy) BaseType() string {
	return domain.StrategyTypePullback
}

// ProduceSignals marks bars that complete a breakout-pullback-rebreak
// sequence:
//   - a breakout occurred 3 to 10 bars back,
//   - the last 5 bars touched the EMA (within 2%) with at least two
//     bars of declining volume,
//   - the current bar closes above the prior high on rising volume.
func (s *PullbackStrategy) ProduceSignals(bars []*domain.Bar) []*domain.Bar {
	out := copyBars(bars)
	n := len(out)

	breakout := make([]bool, n)
	nearEMA := make([]bool, n)
	volumeDeclining := make([]bool, n)

	for i := 0; i < n; i++ {
		b := out[i]
		if i > 0 {
			breakout[i] = b.High > out[i-1].High20
			volumeDeclining[i] = b.Volume < out[i-1].Volume
		}
		nearEMA[i] = math.Abs(b.Low-b.EMA20)/b.EMA20 < 0.02
	}

	for i := 10; i < n; i++ {
		if !anyTrue(breakout[i-10 : i-2]) {
			continue
		}

		declines := 0
		for _, d := range volumeDeclining[i-5 : i] {
			if d {
				declines++
			}
		}
		if !anyTrue(nearEMA[i-5:i]) || declines < 2 {
			continue
		}

		bar := out[i]
		priceRising := bar.Close > out[i-1].High
		volumeRising := bar.Volume > out[i-1].Volume
		if !(priceRising && volumeRising) {
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

// initialStop is the higher of the 5-bar pullback low and the ATR
// stop, clamped to an emergency 3% stop when that lands at or above
// entry.
func (s *PullbackStrategy) initialStop(bars []*domain.Bar, i int, entry float64) float64 {
	lo := i - 4
	if lo < 0 {
		lo = 0
	}

	stop := math.Inf(1)
	for _, b := range bars[lo : i+1] {
		if b.Low < stop {
			stop = b.Low
		}
	}

	if bars[i].HasATR() {
		atrStop := entry - bars[i].ATR14*s.ATRStopMult
		if atrStop > stop {
			stop = atrStop
		}
	}

	if stop >= entry {
		stop = entry * 0.97
	}

	return stop
}

// Scan checks the latest bar for a pullback setup.
func (s *PullbackStrategy) Scan(symbol string, bars []*domain.Bar) *Setup {
	if len(bars) < 30 {
		return nil
	}

	annotated := s.ProduceSignals(indicators.Annotate(bars))
	last := annotated[len(annotated)-1]
	if last.Signal == nil || !last.Signal.Valid() {
		return nil
	}

	volumeStrength := last.Volume / last.Volume20
	emaDistance := math.Abs(last.Low-last.EMA20) / last.EMA20

	emaScore := math.Max(0, 1-emaDistance/0.05)
	volumeScore := math.Min(volumeStrength/2.0, 1.0)
	confidence := emaScore*0.4 + volumeScore*0.6

	return &Setup{
		Symbol:     symbol,
		SetupName:  "breakout_pullback",
		Entry:      last.Signal.Entry,
		Stop:       last.Signal.Stop,
		Target:     last.Signal.Target,
		Timeframe:  "swing",
		Confidence: confidence,
		Notes: fmt.Sprintf("Pullback to EMA(%d), re-break with volume. Volume: %.1fx avg. R:R = 1:%.1f",
			s.EMAPeriod, volumeStrength, s.TargetR),
	}
}

// EvaluateExit moves the stop to breakeven at +1R and trails it by
// ATR once the trade reaches TrailR.
func (s *PullbackStrategy) EvaluateExit(entryPrice, closePrice, atr, stopPrice float64) (bool, float64, string) {
	return evaluateTrailingExit(entryPrice, closePrice, atr, stopPrice, s.ATRStopMult, s.TrailR)
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

var _ Strategy = (*PullbackStrategy)(nil)
var _ ExitEvaluator = (*PullbackStrategy)(nil)
