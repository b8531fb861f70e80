package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// SignalLogStore implements storage.SignalLogStore using PostgreSQL.
type SignalLogStore struct {
	pool *Pool
}

// NewSignalLogStore creates a new SignalLogStore.
func NewSignalLogStore(pool *Pool) *SignalLogStore {
	return &SignalLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalLogStore = (*SignalLogStore)(nil)

const selectSignalLogColumns = `
	ts_ms, symbol, strategy_id, setup,
	entry, stop, target, confidence,
	action, reason
`

// Append records a journal entry.
func (s *SignalLogStore) Append(ctx context.Context, e *domain.SignalLog) error {
	if e == nil || e.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO signal_logs (
			ts_ms, symbol, strategy_id, setup,
			entry, stop, target, confidence,
			action, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Timestamp, e.Symbol, e.StrategyID, e.Setup,
		e.Entry, e.Stop, e.Target, e.Confidence,
		e.Action, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("append signal log: %w", err)
	}
	return nil
}

// GetBySymbol retrieves all entries for a symbol, ordered by timestamp ASC.
func (s *SignalLogStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.SignalLog, error) {
	query := `SELECT ` + selectSignalLogColumns + `
		FROM signal_logs
		WHERE symbol = $1
		ORDER BY ts_ms ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get signal logs by symbol: %w", err)
	}
	defer rows.Close()

	return scanSignalLogs(rows)
}

// GetByTimeRange retrieves entries within [start, end] ms (inclusive).
func (s *SignalLogStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SignalLog, error) {
	query := `SELECT ` + selectSignalLogColumns + `
		FROM signal_logs
		WHERE ts_ms >= $1 AND ts_ms <= $2
		ORDER BY ts_ms ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get signal logs by time range: %w", err)
	}
	defer rows.Close()

	return scanSignalLogs(rows)
}

func scanSignalLogs(rows pgx.Rows) ([]*domain.SignalLog, error) {
	var entries []*domain.SignalLog

	for rows.Next() {
		var e domain.SignalLog
		err := rows.Scan(
			&e.Timestamp, &e.Symbol, &e.StrategyID, &e.Setup,
			&e.Entry, &e.Stop, &e.Target, &e.Confidence,
			&e.Action, &e.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal log row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal log rows: %w", err)
	}

	return entries, nil
}
