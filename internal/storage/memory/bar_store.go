package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

type barKey struct {
	symbol string
	ts     int64
}

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[barKey]*domain.Bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[barKey]*domain.Bar),
	}
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp).
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey{symbol: b.Symbol, ts: b.Timestamp.UnixMilli()}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		cp := *b
		s.data[barKey{symbol: b.Symbol, ts: b.Timestamp.UnixMilli()}] = &cp
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for key, b := range s.data {
		if key.symbol == symbol {
			cp := *b
			result = append(result, &cp)
		}
	}

	sortBars(result)
	return result, nil
}

// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for key, b := range s.data {
		if key.symbol != symbol {
			continue
		}
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}

	sortBars(result)
	return result, nil
}

func sortBars(bars []*domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

var _ storage.BarStore = (*BarStore)(nil)
