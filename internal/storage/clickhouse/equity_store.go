package clickhouse

import (
	"context"
	"fmt"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk stores the points of one run. Fails entire batch on
// duplicate (run_id, timestamp).
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{})
	for _, p := range points {
		tsMs := p.Timestamp.UnixMilli()
		if _, exists := seen[tsMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[tsMs] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, runID, p.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (
			run_id, ts_ms, equity
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, uint64(p.Timestamp.UnixMilli()), p.Equity); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
// Returns ErrNotFound when the run has no points.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	query := `
		SELECT ts_ms, equity
		FROM equity_curves
		WHERE run_id = ?
		ORDER BY ts_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityPoint
	for rows.Next() {
		var tsMs uint64
		var equity float64
		if err := rows.Scan(&tsMs, &equity); err != nil {
			return nil, fmt.Errorf("scan equity row: %w", err)
		}
		points = append(points, domain.EquityPoint{
			Timestamp: time.UnixMilli(int64(tsMs)).UTC(),
			Equity:    equity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity rows: %w", err)
	}

	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points, nil
}

// exists checks if a point with the given key exists.
func (s *EquityCurveStore) exists(ctx context.Context, runID string, tsMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM equity_curves
		WHERE run_id = ? AND ts_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, uint64(tsMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
