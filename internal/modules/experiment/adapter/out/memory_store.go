package out

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gametune/internal/modules/experiment/domain"
	expout "gametune/internal/modules/experiment/port/out"
	apperrors "gametune/internal/platform/errors"
)

type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Config
}

func NewMemoryStore() expout.Store {
	return &MemoryStore{byID: map[string]domain.Config{}}
}

func (s *MemoryStore) Create(_ context.Context, cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[cfg.ID]; ok {
		return fmt.Errorf("experiment %q already exists: %w", cfg.ID, apperrors.ErrInvalidInput)
	}
	s.byID[cfg.ID] = cfg.Clone()
	s.order = append(s.order, cfg.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.byID[id]
	if !ok {
		return domain.Config{}, apperrors.NotFound("experiment", id)
	}
	return cfg.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[cfg.ID]; !ok {
		return apperrors.NotFound("experiment", cfg.ID)
	}
	s.byID[cfg.ID] = cfg.Clone()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Config, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

type participation struct {
	experiment, player, game string
}

type MemorySampleStore struct {
	mu      sync.RWMutex
	samples map[string][]domain.MetricSample
	seen    map[participation]bool
}

func NewMemorySampleStore() expout.SampleStore {
	return &MemorySampleStore{samples: map[string][]domain.MetricSample{}, seen: map[participation]bool{}}
}

func (s *MemorySampleStore) Append(_ context.Context, sample domain.MetricSample) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sample.ExperimentID] = append(s.samples[sample.ExperimentID], sample)
	key := participation{sample.ExperimentID, sample.PlayerID, sample.GameID}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *MemorySampleStore) Samples(_ context.Context, experimentID string) ([]domain.MetricSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.MetricSample(nil), s.samples[experimentID]...), nil
}

// PruneOlderThan drops old samples. Participation marks are kept so a pruned
// player is not counted as a new participant again.
func (s *MemorySampleStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, samples := range s.samples {
		kept := samples[:0]
		for _, sample := range samples {
			if sample.RecordedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, sample)
		}
		s.samples[id] = kept
	}
	return removed, nil
}

// MemoryAlertLog keeps the newest domain.AlertHistory alerts per experiment.
type MemoryAlertLog struct {
	mu     sync.RWMutex
	alerts map[string][]domain.Alert
}

func NewMemoryAlertLog() expout.AlertLog {
	return &MemoryAlertLog{alerts: map[string][]domain.Alert{}}
}

func (l *MemoryAlertLog) Append(_ context.Context, alert domain.Alert) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.alerts[alert.ExperimentID], alert)
	if len(list) > domain.AlertHistory {
		list = append([]domain.Alert(nil), list[len(list)-domain.AlertHistory:]...)
	}
	l.alerts[alert.ExperimentID] = list
	return nil
}

func (l *MemoryAlertLog) Recent(_ context.Context, experimentID string, limit int) ([]domain.Alert, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := l.alerts[experimentID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]domain.Alert(nil), list...), nil
}

func (l *MemoryAlertLog) PruneOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, list := range l.alerts {
		kept := list[:0]
		for _, a := range list {
			if a.RaisedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		l.alerts[id] = kept
	}
	return removed, nil
}
