package memory

import (
	"context"
	"sort"
	"sync"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by run_id
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityPoint),
	}
}

// InsertBulk stores the points of one run. Fails entire batch on
// duplicate (run_id, timestamp).
func (s *EquityCurveStore) InsertBulk(_ context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[int64]struct{}, len(s.data[runID]))
	for _, p := range s.data[runID] {
		existing[p.Timestamp.UnixMilli()] = struct{}{}
	}
	for _, p := range points {
		ts := p.Timestamp.UnixMilli()
		if _, dup := existing[ts]; dup {
			return storage.ErrDuplicateKey
		}
		existing[ts] = struct{}{}
	}

	s.data[runID] = append(s.data[runID], points...)
	return nil
}

// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.EquityPoint, len(points))
	copy(result, points)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
