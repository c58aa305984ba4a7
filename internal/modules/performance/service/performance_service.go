package service

import (
	"context"
	"errors"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"gametune/internal/modules/performance/domain"
	perfout "gametune/internal/modules/performance/port/out"
	"gametune/internal/platform/clock"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/id"
	"gametune/internal/platform/keylock"
	"gametune/internal/platform/logging"
)

type PerformanceService struct {
	clock  clock.Clock
	idGen  id.Generator
	store  perfout.Store
	locks  *keylock.Locker
	logger hclog.Logger
}

func NewPerformanceService(clock clock.Clock, idGen id.Generator, store perfout.Store, locks *keylock.Locker, logger hclog.Logger) *PerformanceService {
	if locks == nil {
		locks = keylock.New(keylock.DefaultTimeout)
	}
	return &PerformanceService{clock: clock, idGen: idGen, store: store, locks: locks, logger: logging.OrNull(logger).Named("performance")}
}

func (s *PerformanceService) Record(ctx context.Context, key domain.Key, session domain.GameSession) (domain.PlayerPerformance, error) {
	if err := validateKey(key); err != nil {
		return domain.PlayerPerformance{}, err
	}
	if err := validateResult(session.Result); err != nil {
		return domain.PlayerPerformance{}, err
	}
	if session.ID == "" {
		session.ID = s.idGen.New()
	}
	if session.RecordedAt.IsZero() {
		session.RecordedAt = s.clock.Now()
	}

	var updated domain.PlayerPerformance
	err := s.withRecord(ctx, key, true, func(perf *domain.PlayerPerformance) error {
		perf.AddSession(session)
		updated = *perf
		return nil
	})
	if err != nil {
		return domain.PlayerPerformance{}, err
	}
	s.logger.Debug("session recorded", "game_id", key.GameID, "player_id", key.PlayerID, "sessions", updated.Adaptive.SessionsRecorded)
	return updated, nil
}

func (s *PerformanceService) Get(ctx context.Context, key domain.Key) (domain.PlayerPerformance, error) {
	if err := validateKey(key); err != nil {
		return domain.PlayerPerformance{}, err
	}
	return s.store.Load(ctx, key)
}

// Update runs fn on an existing record under its key lock and saves it.
func (s *PerformanceService) Update(ctx context.Context, key domain.Key, fn func(*domain.PlayerPerformance) error) (domain.PlayerPerformance, error) {
	if err := validateKey(key); err != nil {
		return domain.PlayerPerformance{}, err
	}
	var updated domain.PlayerPerformance
	err := s.withRecord(ctx, key, false, func(perf *domain.PlayerPerformance) error {
		if err := fn(perf); err != nil {
			return err
		}
		perf.UpdatedAt = s.clock.Now()
		updated = *perf
		return nil
	})
	return updated, err
}

type PruneReport struct {
	Records            int
	RecordsDeleted     int
	SessionsRemoved    int
	AdjustmentsRemoved int
}

// Prune visits every record, one key lock at a time.
func (s *PerformanceService) Prune(ctx context.Context, cutoff time.Time) (PruneReport, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return PruneReport{}, err
	}
	report := PruneReport{}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		deleted, sessions, adjustments, err := s.pruneOne(ctx, key, cutoff)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		report.Records++
		report.SessionsRemoved += sessions
		report.AdjustmentsRemoved += adjustments
		if deleted {
			report.RecordsDeleted++
		}
	}
	if report.SessionsRemoved > 0 || report.RecordsDeleted > 0 {
		s.logger.Info("pruned performance records", "cutoff", cutoff, "sessions", report.SessionsRemoved, "adjustments", report.AdjustmentsRemoved, "deleted", report.RecordsDeleted)
	}
	return report, nil
}

func (s *PerformanceService) pruneOne(ctx context.Context, key domain.Key, cutoff time.Time) (bool, int, int, error) {
	unlock, err := s.locks.Lock(ctx, lockKey(key))
	if err != nil {
		return false, 0, 0, err
	}
	defer unlock()

	perf, err := s.store.Load(ctx, key)
	if err != nil {
		return false, 0, 0, err
	}
	sessions, adjustments := perf.Prune(cutoff)
	if len(perf.Sessions) == 0 {
		return true, sessions, adjustments, s.store.Delete(ctx, key)
	}
	if sessions == 0 && adjustments == 0 {
		return false, 0, 0, nil
	}
	return false, sessions, adjustments, s.store.Save(ctx, perf)
}

func (s *PerformanceService) withRecord(ctx context.Context, key domain.Key, create bool, fn func(*domain.PlayerPerformance) error) error {
	unlock, err := s.locks.Lock(ctx, lockKey(key))
	if err != nil {
		return err
	}
	defer unlock()

	perf, err := s.store.Load(ctx, key)
	switch {
	case errors.Is(err, apperrors.ErrNotFound) && create:
		perf = domain.New(key)
	case err != nil:
		return err
	}
	if err := fn(&perf); err != nil {
		return err
	}
	return s.store.Save(ctx, perf)
}

func validateKey(key domain.Key) error {
	v := apperrors.NewValidator("player key")
	v.Check(key.GameID != "", "game_id", "required", "game id is required")
	v.Check(key.PlayerID != "", "player_id", "required", "player id is required")
	return v.Err()
}

func validateResult(r domain.SessionResult) error {
	v := apperrors.NewValidator("session result")
	v.Check(r.Accuracy >= 0 && r.Accuracy <= 100, "accuracy", "range", "accuracy must be within 0-100, got %v", r.Accuracy)
	v.Check(r.TotalProblems >= 0, "total_problems", "non_negative", "total problems must not be negative")
	v.Check(r.CorrectCount >= 0, "correct_count", "non_negative", "correct count must not be negative")
	v.Check(r.ProblemsAttempted >= 0, "problems_attempted", "non_negative", "problems attempted must not be negative")
	v.Check(r.HintsUsed >= 0, "hints_used", "non_negative", "hints used must not be negative")
	v.Check(r.Retries >= 0, "retries", "non_negative", "retries must not be negative")
	v.Check(r.TimeSpentMS >= 0, "time_spent_ms", "non_negative", "time spent must not be negative")
	v.Check(r.TotalProblems == 0 || r.ProblemsAttempted <= r.TotalProblems, "problems_attempted", "max_total", "problems attempted exceeds total problems")
	return v.Err()
}

func lockKey(key domain.Key) string {
	return "performance/" + key.String()
}
