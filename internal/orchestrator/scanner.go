package orchestrator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/indicators"
	"swing-trade-lab/internal/observability"
	"swing-trade-lab/internal/risk"
	"swing-trade-lab/internal/sizing"
	"swing-trade-lab/internal/storage"
	"swing-trade-lab/internal/strategy"
)

// Scanner checks the latest bar of each symbol for tradeable setups,
// sizes them, runs the risk battery, and journals every outcome. The
// scan path is where the risk manager gates entries; the simulator
// stays decoupled from it.
type Scanner struct {
	signalLogStore storage.SignalLogStore // optional, nil skips journaling

	runConfig       domain.RunConfig
	limits          domain.RiskLimits
	strategyConfigs []domain.StrategyConfig
}

// NewScanner validates the strategy configs up front.
func NewScanner(signalLogStore storage.SignalLogStore, runConfig domain.RunConfig, limits domain.RiskLimits, strategyConfigs []domain.StrategyConfig) (*Scanner, error) {
	if err := runConfig.Validate(); err != nil {
		return nil, err
	}
	for _, cfg := range strategyConfigs {
		if _, err := strategy.FromConfig(cfg); err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", cfg.StrategyType, err)
		}
	}
	return &Scanner{
		signalLogStore:  signalLogStore,
		runConfig:       runConfig,
		limits:          limits,
		strategyConfigs: strategyConfigs,
	}, nil
}

// ScanResult is one journaled setup with its sizing and risk verdict.
type ScanResult struct {
	Setup   *strategy.Setup
	Sizing  sizing.Result
	Action  string // executed | rejected | skipped
	Reasons []string
}

// Scan evaluates the latest bar of one symbol against every configured
// strategy. equity is current account equity; openPositions the held
// positions for the risk checks. Every detected setup is journaled
// with the action taken.
func (s *Scanner) Scan(ctx context.Context, symbol string, bars []*domain.Bar, equity float64, openPositions []risk.OpenPosition) ([]ScanResult, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, err
	}

	annotated := indicators.Annotate(bars)
	latest := annotated[len(annotated)-1]

	var results []ScanResult
	for _, cfg := range s.strategyConfigs {
		strat, err := strategy.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", cfg.StrategyType, err)
		}

		setup := strat.Scan(symbol, annotated)
		if setup == nil {
			continue
		}
		observability.RecordSetupDetected(strat.BaseType())

		res := s.evaluate(symbol, setup, equity, openPositions, latest)
		results = append(results, res)

		if err := s.journal(ctx, latest, strat.ID(), res); err != nil {
			return nil, fmt.Errorf("journal %s/%s: %w", symbol, strat.ID(), err)
		}
	}
	return results, nil
}

// evaluate sizes a setup and runs the pre-trade risk battery.
func (s *Scanner) evaluate(symbol string, setup *strategy.Setup, equity float64, openPositions []risk.OpenPosition, latest *domain.Bar) ScanResult {
	res := ScanResult{Setup: setup}

	sizer := sizing.NewPositionSizer(equity, s.runConfig.MaxPositionPct, s.runConfig.MaxRiskPct)
	res.Sizing = sizer.Calculate(setup.Entry, setup.Stop)
	if !res.Sizing.Valid {
		res.Action = domain.SignalActionSkipped
		res.Reasons = []string{res.Sizing.Reason}
		observability.RecordSignalSkipped("sizing")
		return res
	}

	mgr := risk.NewManager(equity, s.limits)
	approved, reasons := mgr.CheckPreTrade(
		symbol,
		setup.Entry,
		res.Sizing.PositionValue,
		res.Sizing.RiskDollars,
		openPositions,
		liquidityFromBar(latest),
	)
	res.Reasons = reasons

	if approved {
		res.Action = domain.SignalActionExecuted
	} else {
		res.Action = domain.SignalActionRejected
		observability.RecordSignalRejected(setup.SetupName)
	}
	return res
}

func (s *Scanner) journal(ctx context.Context, latest *domain.Bar, strategyID string, res ScanResult) error {
	if s.signalLogStore == nil {
		return nil
	}
	return s.signalLogStore.Append(ctx, &domain.SignalLog{
		Timestamp:  latest.Timestamp.UnixMilli(),
		Symbol:     res.Setup.Symbol,
		StrategyID: strategyID,
		Setup:      res.Setup.SetupName,
		Entry:      res.Setup.Entry,
		Stop:       res.Setup.Stop,
		Target:     res.Setup.Target,
		Confidence: res.Setup.Confidence,
		Action:     res.Action,
		Reason:     strings.Join(res.Reasons, "; "),
	})
}

// liquidityFromBar derives average dollar volume from the rolling
// 20-bar average volume when available. Nil skips the liquidity check.
func liquidityFromBar(b *domain.Bar) *risk.LiquidityInfo {
	if math.IsNaN(b.Volume20) || b.Volume20 <= 0 {
		return nil
	}
	return &risk.LiquidityInfo{AvgDollarVolume: b.Volume20 * b.Close}
}
