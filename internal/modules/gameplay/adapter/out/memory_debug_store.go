package out

import (
	"context"
	"sync"

	"gametune/internal/modules/gameplay/domain"
	gameout "gametune/internal/modules/gameplay/port/out"
)

type MemoryDebugStore struct {
	mu   sync.RWMutex
	mode domain.DebugMode
}

func NewMemoryDebugStore() gameout.DebugStore {
	return &MemoryDebugStore{}
}

func (s *MemoryDebugStore) Get(context.Context) (domain.DebugMode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode, nil
}

func (s *MemoryDebugStore) Set(_ context.Context, mode domain.DebugMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}
