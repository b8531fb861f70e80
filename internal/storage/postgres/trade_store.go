package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, symbol, strategy_id,
		entry_time, entry_price, shares, position_value, stop_price, target_price,
		exit_time, exit_price, exit_reason,
		gross_pnl, commission, slippage, net_pnl, return_pct, r_multiple,
		equity_after
	) VALUES (
		$1, $2, $3,
		$4, $5, $6, $7, $8, $9,
		$10, $11, $12,
		$13, $14, $15, $16, $17, $18,
		$19
	)
`

const selectTradeColumns = `
	trade_id, symbol, strategy_id,
	entry_time, entry_price, shares, position_value, stop_price, target_price,
	exit_time, exit_price, exit_reason,
	gross_pnl, commission, slippage, net_pnl, return_pct, r_multiple,
	equity_after
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + selectTradeColumns + ` FROM trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by entry time ASC.
func (s *TradeStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Trade, error) {
	query := `SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE symbol = $1
		ORDER BY entry_time ASC, trade_id ASC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByStrategy retrieves all trades for a strategy, ordered by entry time ASC.
func (s *TradeStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Trade, error) {
	query := `SELECT ` + selectTradeColumns + `
		FROM trades
		WHERE strategy_id = $1
		ORDER BY entry_time ASC, trade_id ASC`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get trades by strategy: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func tradeArgs(t *domain.Trade) []any {
	return []any{
		t.TradeID, t.Symbol, t.StrategyID,
		t.EntryTime, t.EntryPrice, t.Shares, t.PositionValue, t.StopPrice, t.TargetPrice,
		t.ExitTime, t.ExitPrice, t.ExitReason,
		t.GrossPnL, t.Commission, t.Slippage, t.NetPnL, t.ReturnPct, t.RMultiple,
		t.EquityAfter,
	}
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade

	err := row.Scan(
		&t.TradeID, &t.Symbol, &t.StrategyID,
		&t.EntryTime, &t.EntryPrice, &t.Shares, &t.PositionValue, &t.StopPrice, &t.TargetPrice,
		&t.ExitTime, &t.ExitPrice, &t.ExitReason,
		&t.GrossPnL, &t.Commission, &t.Slippage, &t.NetPnL, &t.ReturnPct, &t.RMultiple,
		&t.EquityAfter,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
