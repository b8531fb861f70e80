package reporting

import (
	"context"
	"fmt"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/metrics"
	"swing-trade-lab/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, equityStore storage.EquityCurveStore) *Generator {
	return &Generator{
		tradeStore:  tradeStore,
		equityStore: equityStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Params identifies the run to report on.
type Params struct {
	RunID          string
	StrategyID     string
	Symbol         string
	InitialCapital float64
	StartDate      time.Time
	EndDate        time.Time
}

// Generate loads the run's ledger and equity curve and computes the
// performance snapshot. A run with zero trades still yields a report.
func (g *Generator) Generate(ctx context.Context, p Params) (*Report, error) {
	trades, err := g.tradeStore.GetByStrategy(ctx, p.StrategyID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	// Keep only the requested symbol; strategies can span symbols.
	if p.Symbol != "" {
		filtered := trades[:0]
		for _, t := range trades {
			if t.Symbol == p.Symbol {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	curve, err := g.equityStore.GetByRunID(ctx, p.RunID)
	if err != nil {
		return nil, fmt.Errorf("load equity curve: %w", err)
	}

	perf := metrics.Analyze(p.StrategyID, p.Symbol, trades, curve, p.InitialCapital, p.StartDate, p.EndDate)

	return &Report{
		GeneratedAt: g.now(),
		RunID:       p.RunID,
		Performance: perf,
		Trades:      trades,
		EquityCurve: curve,
	}, nil
}

// FromResult builds a report directly from in-memory run output,
// bypassing storage. Used by the backtest CLI before anything is
// persisted.
func FromResult(runID string, perf *domain.PerformanceReport, trades []*domain.Trade, curve []domain.EquityPoint) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		RunID:       runID,
		Performance: perf,
		Trades:      trades,
		EquityCurve: curve,
	}
}
