package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
// Only raw OHLCV columns are persisted; indicator fields come back NaN
// and must be recomputed with indicators.Annotate.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp).
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol string
		tsMs   int64
	}
	seen := make(map[key]struct{})
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{b.Symbol, b.Timestamp.UnixMilli()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Symbol, b.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, ts_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Symbol, uint64(b.Timestamp.UnixMilli()),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, ts_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ?
		ORDER BY ts_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, ts_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND ts_ms >= ? AND ts_ms <= ?
		ORDER BY ts_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, symbol string, tsMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND ts_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, uint64(tsMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBars scans multiple rows.
func scanBars(rows chRows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		var b domain.Bar
		var tsMs uint64

		err := rows.Scan(
			&b.Symbol, &tsMs,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.Timestamp = time.UnixMilli(int64(tsMs)).UTC()
		resetIndicators(&b)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}

// resetIndicators marks all derived fields as not yet computed.
func resetIndicators(b *domain.Bar) {
	nan := math.NaN()
	b.SMA20 = nan
	b.SMA50 = nan
	b.EMA10 = nan
	b.EMA20 = nan
	b.ATR14 = nan
	b.High20 = nan
	b.Low20 = nan
	b.Volume20 = nan
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}
