package memory

import (
	"context"
	"sort"
	"sync"

	"swing-trade-lab/internal/domain"
	"swing-trade-lab/internal/storage"
)

// SignalLogStore is an in-memory implementation of storage.SignalLogStore.
type SignalLogStore struct {
	mu      sync.RWMutex
	entries []*domain.SignalLog
}

// NewSignalLogStore creates a new in-memory signal journal.
func NewSignalLogStore() *SignalLogStore {
	return &SignalLogStore{}
}

// Append records a journal entry.
func (s *SignalLogStore) Append(_ context.Context, e *domain.SignalLog) error {
	if e == nil || e.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

// GetBySymbol retrieves all entries for a symbol, ordered by timestamp ASC.
func (s *SignalLogStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.SignalLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SignalLog
	for _, e := range s.entries {
		if e.Symbol == symbol {
			cp := *e
			result = append(result, &cp)
		}
	}

	sortSignalLogs(result)
	return result, nil
}

// GetByTimeRange retrieves entries within [start, end] ms (inclusive).
func (s *SignalLogStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SignalLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SignalLog
	for _, e := range s.entries {
		if e.Timestamp >= start && e.Timestamp <= end {
			cp := *e
			result = append(result, &cp)
		}
	}

	sortSignalLogs(result)
	return result, nil
}

func sortSignalLogs(entries []*domain.SignalLog) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
}

var _ storage.SignalLogStore = (*SignalLogStore)(nil)
