package strategy

import (
	"errors"

	"swing-trade-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrInvalidLookback     = errors.New("MOMENTUM requires Lookback > 0")
	ErrInvalidVolumeMult   = errors.New("MOMENTUM requires VolumeMult > 0")
	ErrInvalidEMAPeriod    = errors.New("PULLBACK requires EMAPeriod > 0")
	ErrInvalidATRStopMult  = errors.New("ATRStopMult must be > 0")
	ErrInvalidTargetR      = errors.New("TargetR must be > 0")
	ErrInvalidTrailR       = errors.New("TrailR must be > 0")
)

// FromConfig creates a Strategy from domain.StrategyConfig.
// Nil parameters fall back to the documented defaults; supplied values
// are validated and rejected with per-parameter errors.
func FromConfig(cfg domain.StrategyConfig) (Strategy, error) {
	switch cfg.StrategyType {
	case domain.StrategyTypeMomentum:
		return fromMomentumConfig(cfg)
	case domain.StrategyTypePullback:
		return fromPullbackConfig(cfg)
	default:
		return nil, ErrUnknownStrategyType
	}
}

func fromMomentumConfig(cfg domain.StrategyConfig) (*MomentumStrategy, error) {
	lookback := DefaultMomentumLookback
	if cfg.Lookback != nil {
		lookback = *cfg.Lookback
	}
	if lookback <= 0 {
		return nil, ErrInvalidLookback
	}

	volumeMult := DefaultMomentumVolumeMult
	if cfg.VolumeMult != nil {
		volumeMult = *cfg.VolumeMult
	}
	if volumeMult <= 0 {
		return nil, ErrInvalidVolumeMult
	}

	atrStopMult, targetR, trailR, err := commonParams(cfg,
		DefaultMomentumATRStopMult, DefaultMomentumTargetR, DefaultMomentumTrailR)
	if err != nil {
		return nil, err
	}

	return NewMomentumStrategy(lookback, volumeMult, atrStopMult, targetR, trailR), nil
}

func fromPullbackConfig(cfg domain.StrategyConfig) (*PullbackStrategy, error) {
	emaPeriod := DefaultPullbackEMAPeriod
	if cfg.EMAPeriod != nil {
		emaPeriod = *cfg.EMAPeriod
	}
	if emaPeriod <= 0 {
		return nil, ErrInvalidEMAPeriod
	}

	volumeDecline := DefaultPullbackVolumeDecline
	if cfg.VolumeDecline != nil {
		volumeDecline = *cfg.VolumeDecline
	}

	atrStopMult, targetR, trailR, err := commonParams(cfg,
		DefaultPullbackATRStopMult, DefaultPullbackTargetR, DefaultPullbackTrailR)
	if err != nil {
		return nil, err
	}

	return NewPullbackStrategy(emaPeriod, volumeDecline, atrStopMult, targetR, trailR), nil
}

func commonParams(cfg domain.StrategyConfig, defATR, defTarget, defTrail float64) (float64, float64, float64, error) {
	atrStopMult := defATR
	if cfg.ATRStopMult != nil {
		atrStopMult = *cfg.ATRStopMult
	}
	if atrStopMult <= 0 {
		return 0, 0, 0, ErrInvalidATRStopMult
	}

	targetR := defTarget
	if cfg.TargetR != nil {
		targetR = *cfg.TargetR
	}
	if targetR <= 0 {
		return 0, 0, 0, ErrInvalidTargetR
	}

	trailR := defTrail
	if cfg.TrailR != nil {
		trailR = *cfg.TrailR
	}
	if trailR <= 0 {
		return 0, 0, 0, ErrInvalidTrailR
	}

	return atrStopMult, targetR, trailR, nil
}
