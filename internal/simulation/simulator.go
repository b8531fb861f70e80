// Package simulation walks an annotated bar series forward in time
// and resolves entry signals into filled trades with cost modeling.
// The simulator is deterministic: no I/O, no clock, no randomness.
package simulation

import (
	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/idhash"
	"swing-trade-lab/internal/sizing"
)

// ExitPolicy is the optional per-bar exit hook supplied by a strategy.
// stopPrice is always the trade's original stop, so the policy sees
// the full initial risk on every bar. The policy may raise the
// effective stop (never lower it) and may trigger an exit at the
// bar's close with its own reason.
type ExitPolicy func(entryPrice, closePrice, atr, stopPrice float64) (shouldExit bool, newStop float64, reason string)

// Result holds the output of one simulation run.
type Result struct {
	Trades      []*domain.Trade
	EquityCurve []domain.EquityPoint
	FinalEquity float64
}

// Simulator executes trade simulations under a fixed run config.
type Simulator struct {
	cfg domain.RunConfig
}

// NewSimulator validates the run config up front; a bad config is a
// caller error, not something to paper over mid-run.
func NewSimulator(cfg domain.RunConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// Simulate walks the series bar by bar under a single-position model:
// a bar's entry signal opens a trade only when none is open, sizing
// uses the running equity, and exits resolve strictly after the entry
// bar in fixed priority (target, stop, then the exit policy). A trade
// still open when the series ends is discarded rather than
// force-closed. Malformed signals are skipped silently; an empty
// series yields an empty ledger.
func (s *Simulator) Simulate(bars []*domain.Bar, strategyID string, exitPolicy ExitPolicy) (*Result, error) {
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, err
	}

	equity := s.cfg.InitialCapital
	res := &Result{
		Trades:      make([]*domain.Trade, 0),
		EquityCurve: make([]domain.EquityPoint, 0),
	}

	if len(bars) == 0 {
		res.FinalEquity = equity
		return res, nil
	}

	res.EquityCurve = append(res.EquityCurve, domain.EquityPoint{
		Timestamp: bars[0].Timestamp,
		Equity:    equity,
	})

	for i := 0; i < len(bars); i++ {
		sig := bars[i].Signal
		if sig == nil || !sig.Valid() {
			continue
		}

		// Buy-side slippage worsens the fill before sizing sees it.
		entryFill := sig.Entry * (1 + s.cfg.SlippagePct)

		sizer := sizing.NewPositionSizer(equity, s.cfg.MaxPositionPct, s.cfg.MaxRiskPct)
		sized := sizer.Calculate(entryFill, sig.Stop)
		if !sized.Valid {
			continue
		}

		exitIdx, rawExit, reason := s.findExit(bars, i, entryFill, sig.Stop, sig.Target, exitPolicy)
		if exitIdx < 0 {
			// Still open when the data ran out. The position would
			// block any later entry, so the run is over.
			break
		}

		exitFill := rawExit * (1 - s.cfg.SlippagePct)
		grossPnL := float64(sized.Shares) * (exitFill - entryFill)
		commission := s.cfg.CommissionPerTrade * 2
		netPnL := grossPnL - commission
		equity += netPnL

		risk := entryFill - sig.Stop
		var rMultiple float64
		if risk > 0 {
			rMultiple = (exitFill - entryFill) / risk
		}

		entryTime := bars[i].Timestamp
		exitTime := bars[exitIdx].Timestamp
		symbol := bars[i].Symbol

		res.Trades = append(res.Trades, &domain.Trade{
			TradeID:       idhash.ComputeTradeID(symbol, strategyID, entryTime.UnixMilli()),
			Symbol:        symbol,
			StrategyID:    strategyID,
			EntryTime:     entryTime,
			EntryPrice:    entryFill,
			Shares:        sized.Shares,
			PositionValue: sized.PositionValue,
			StopPrice:     sig.Stop,
			TargetPrice:   sig.Target,
			ExitTime:      exitTime,
			ExitPrice:     exitFill,
			ExitReason:    reason,
			GrossPnL:      grossPnL,
			Commission:    commission,
			Slippage:      float64(sized.Shares) * sig.Entry * s.cfg.SlippagePct * 2,
			NetPnL:        netPnL,
			ReturnPct:     netPnL / sized.PositionValue,
			RMultiple:     rMultiple,
			EquityAfter:   equity,
		})

		res.EquityCurve = append(res.EquityCurve, domain.EquityPoint{
			Timestamp: exitTime,
			Equity:    equity,
		})

		// Resume scanning after the exit bar.
		i = exitIdx
	}

	res.FinalEquity = equity
	return res, nil
}

// findExit walks bars strictly after the entry bar and returns the
// index, raw exit price, and reason of the first exit, or -1 when the
// trade never closes. The policy always evaluates against the
// original stop so its r-multiple keeps growing with price; the
// effective stop only ratchets upward from what it returns.
func (s *Simulator) findExit(bars []*domain.Bar, entryIdx int, entryFill, stop, target float64, exitPolicy ExitPolicy) (int, float64, string) {
	currentStop := stop

	for j := entryIdx + 1; j < len(bars); j++ {
		bar := bars[j]

		if bar.High >= target {
			return j, target, domain.ExitReasonTarget
		}

		if bar.Low <= currentStop {
			return j, currentStop, domain.ExitReasonStop
		}

		if exitPolicy != nil {
			var atr float64
			if bar.HasATR() {
				atr = bar.ATR14
			}

			shouldExit, newStop, reason := exitPolicy(entryFill, bar.Close, atr, stop)
			if newStop > currentStop {
				currentStop = newStop
			}
			if shouldExit {
				return j, bar.Close, reason
			}
		}
	}

	return -1, 0, ""
}
