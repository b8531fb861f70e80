// Package orchestrator provides end-to-end run coordination.
// It coordinates: bar loading → indicator annotation → signal
// generation → simulation → metrics → persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/idhash"
	"swing-trade-lab/internal/indicators"
	"swing-trade-lab/internal/metrics"
	"swing-trade-lab/internal/observability"
	"swing-trade-lab/internal/reporting"
	"swing-trade-lab/internal/simulation"
	"swing-trade-lab/internal/storage"
	"swing-trade-lab/internal/strategy"
)

var ErrNoBars = errors.New("no bars for symbol in window")

// Orchestrator coordinates backtest execution across symbols and
// strategy configurations.
type Orchestrator struct {
	// Stores. TradeStore and EquityStore are optional; nil skips
	// persistence and the run stays in memory.
	barStore    storage.BarStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore

	runConfig       domain.RunConfig
	strategyConfigs []domain.StrategyConfig

	verbose bool
}

// Options for creating an Orchestrator.
type Options struct {
	BarStore    storage.BarStore
	TradeStore  storage.TradeStore
	EquityStore storage.EquityCurveStore

	RunConfig       domain.RunConfig
	StrategyConfigs []domain.StrategyConfig

	Verbose bool
}

// New validates the run config and strategy configs up front.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.RunConfig.Validate(); err != nil {
		return nil, err
	}
	for _, cfg := range opts.StrategyConfigs {
		if _, err := strategy.FromConfig(cfg); err != nil {
			return nil, fmt.Errorf("strategy config %s: %w", cfg.StrategyType, err)
		}
	}
	return &Orchestrator{
		barStore:        opts.BarStore,
		tradeStore:      opts.TradeStore,
		equityStore:     opts.EquityStore,
		runConfig:       opts.RunConfig,
		strategyConfigs: opts.StrategyConfigs,
		verbose:         opts.Verbose,
	}, nil
}

// RunResult aggregates the outcome of one orchestrated run.
type RunResult struct {
	Reports       []*reporting.Report
	TradesCreated int
	Errors        []string
}

// Run executes every (symbol, strategy) combination over the window.
// Phases:
//  1. Load bars per symbol from the bar store
//  2. Annotate indicators
//  3. Produce signals and simulate per strategy
//  4. Analyze and persist
//
// A symbol with no bars in the window is reported as an error string
// rather than failing the whole run.
func (o *Orchestrator) Run(ctx context.Context, symbols []string, start, end time.Time) (*RunResult, error) {
	if o.barStore == nil {
		return nil, errors.New("orchestrator: bar store required to load symbols")
	}

	result := &RunResult{}

	for _, symbol := range symbols {
		o.log("Loading bars for %s...", symbol)
		bars, err := o.barStore.GetByTimeRange(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", symbol, ErrNoBars))
			continue
		}

		if err := o.runSymbol(ctx, symbol, bars, start, end, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// RunSeries executes every strategy over an already-loaded bar series,
// the path used when bars come from a CSV file rather than storage.
func (o *Orchestrator) RunSeries(ctx context.Context, symbol string, bars []*domain.Bar, start, end time.Time) (*RunResult, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	result := &RunResult{}
	if err := o.runSymbol(ctx, symbol, bars, start, end, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) runSymbol(ctx context.Context, symbol string, bars []*domain.Bar, start, end time.Time, result *RunResult) error {
	o.log("Annotating %d bars for %s...", len(bars), symbol)
	annotated := indicators.Annotate(bars)

	for _, cfg := range o.strategyConfigs {
		strat, err := strategy.FromConfig(cfg)
		if err != nil {
			// Configs were validated in New; a failure here is a bug.
			return fmt.Errorf("strategy config %s: %w", cfg.StrategyType, err)
		}

		report, trades, err := o.runOne(ctx, symbol, annotated, strat, start, end)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", symbol, strat.ID(), err))
			continue
		}

		result.Reports = append(result.Reports, report)
		result.TradesCreated += trades
	}
	return nil
}

// runOne simulates one (symbol, strategy) pair and persists the outcome.
func (o *Orchestrator) runOne(ctx context.Context, symbol string, bars []*domain.Bar, strat strategy.Strategy, start, end time.Time) (*reporting.Report, int, error) {
	began := time.Now()

	sim, err := simulation.NewSimulator(o.runConfig)
	if err != nil {
		return nil, 0, err
	}

	signaled := strat.ProduceSignals(bars)

	var policy simulation.ExitPolicy
	if ee, ok := strat.(strategy.ExitEvaluator); ok {
		policy = ee.EvaluateExit
	}

	simRes, err := sim.Simulate(signaled, strat.ID(), policy)
	if err != nil {
		observability.RecordSimulationRun("error", time.Since(began).Seconds(), 0)
		return nil, 0, fmt.Errorf("simulate: %w", err)
	}

	runID := idhash.ComputeRunID(symbol, strat.ID(), start.UnixMilli(), end.UnixMilli())
	o.log("Run %s: %s/%s produced %d trades", runID, symbol, strat.ID(), len(simRes.Trades))

	if err := o.persist(ctx, runID, simRes); err != nil {
		observability.RecordSimulationRun("error", time.Since(began).Seconds(), len(simRes.Trades))
		return nil, 0, err
	}

	perf := metrics.Analyze(strat.ID(), symbol, simRes.Trades, simRes.EquityCurve, o.runConfig.InitialCapital, start, end)
	report := reporting.FromResult(runID, perf, simRes.Trades, simRes.EquityCurve)

	observability.RecordSimulationRun("success", time.Since(began).Seconds(), len(simRes.Trades))
	observability.RecordReportGenerated()

	return report, len(simRes.Trades), nil
}

// persist writes trades and the equity curve when stores are wired.
// Duplicate keys mean the identical run already happened; re-runs land
// on the same IDs by construction and are not an error.
func (o *Orchestrator) persist(ctx context.Context, runID string, res *simulation.Result) error {
	if o.tradeStore != nil && len(res.Trades) > 0 {
		if err := o.tradeStore.InsertBulk(ctx, res.Trades); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist trades: %w", err)
		}
	}
	if o.equityStore != nil && len(res.EquityCurve) > 0 {
		if err := o.equityStore.InsertBulk(ctx, runID, res.EquityCurve); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist equity curve: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
