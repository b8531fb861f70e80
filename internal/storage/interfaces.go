package storage

import (
	"context"
	"time"

	"swing-trade-lab/internal/domain"
)

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by entry time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Trade, error)

	// GetByStrategy retrieves all trades for a strategy, ordered by entry time ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Trade, error)
}

// SignalLogStore provides access to the signal journal. Entries are
// append-only: every scanned signal is recorded with whatever action
// was taken, so the journal doubles as an audit trail.
type SignalLogStore interface {
	// Append records a journal entry.
	Append(ctx context.Context, e *domain.SignalLog) error

	// GetBySymbol retrieves all entries for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.SignalLog, error)

	// GetByTimeRange retrieves entries within [start, end] ms (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SignalLog, error)
}

// BarStore provides access to OHLCV bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Bar, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error)
}

// EquityCurveStore provides access to per-run equity curves.
type EquityCurveStore interface {
	// InsertBulk stores the points of one run. Fails entire batch on
	// duplicate (run_id, timestamp).
	InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error

	// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error)
}
