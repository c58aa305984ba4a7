package out

import (
	"context"
	"sort"
	"sync"

	"gametune/internal/modules/performance/domain"
	perfout "gametune/internal/modules/performance/port/out"
	apperrors "gametune/internal/platform/errors"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Key]domain.PlayerPerformance
}

func NewMemoryStore() perfout.Store {
	return &MemoryStore{records: map[domain.Key]domain.PlayerPerformance{}}
}

func (s *MemoryStore) Load(_ context.Context, key domain.Key) (domain.PlayerPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perf, ok := s.records[key]
	if !ok {
		return domain.PlayerPerformance{}, apperrors.NotFound("performance record", key.String())
	}
	return perf.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, perf domain.PlayerPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[perf.Key()] = perf.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]domain.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]domain.Key, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}
