package out

import (
	"context"
	"sync"
	"time"

	"gametune/internal/modules/difficulty/domain"
	diffout "gametune/internal/modules/difficulty/port/out"
	apperrors "gametune/internal/platform/errors"
)

type overrideKey struct{ game, player string }

type MemoryOverrideStore struct {
	mu        sync.RWMutex
	overrides map[overrideKey]domain.Override
}

func NewMemoryOverrideStore() diffout.OverrideStore {
	return &MemoryOverrideStore{overrides: map[overrideKey]domain.Override{}}
}

func (s *MemoryOverrideStore) Put(_ context.Context, o domain.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey{o.GameID, o.PlayerID}] = o
	return nil
}

func (s *MemoryOverrideStore) Get(_ context.Context, gameID, playerID string) (domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[overrideKey{gameID, playerID}]
	if !ok {
		return domain.Override{}, apperrors.NotFound("override", gameID+"/"+playerID)
	}
	return o, nil
}

func (s *MemoryOverrideStore) Delete(_ context.Context, gameID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, overrideKey{gameID, playerID})
	return nil
}

func (s *MemoryOverrideStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key, o := range s.overrides {
		if !o.Active(now) {
			delete(s.overrides, key)
			purged++
		}
	}
	return purged, nil
}
