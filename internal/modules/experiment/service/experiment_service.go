package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"gametune/internal/modules/experiment/domain"
	expout "gametune/internal/modules/experiment/port/out"
	"gametune/internal/platform/clock"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/id"
	"gametune/internal/platform/keylock"
	"gametune/internal/platform/logging"
	"gametune/internal/platform/slug"
)

type ExperimentService struct {
	clock   clock.Clock
	idGen   id.Generator
	store   expout.Store
	samples expout.SampleStore
	alerts  expout.AlertLog
	locks   *keylock.Locker
	logger  hclog.Logger
}

func NewExperimentService(clock clock.Clock, idGen id.Generator, store expout.Store, samples expout.SampleStore, alerts expout.AlertLog, locks *keylock.Locker, logger hclog.Logger) *ExperimentService {
	if locks == nil {
		locks = keylock.New(keylock.DefaultTimeout)
	}
	return &ExperimentService{
		clock:   clock,
		idGen:   idGen,
		store:   store,
		samples: samples,
		alerts:  alerts,
		locks:   locks,
		logger:  logging.OrNull(logger).Named("experiment"),
	}
}

func (s *ExperimentService) Create(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	now := s.clock.Now()
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.ID == "" {
		cfg.ID = slug.Make(cfg.Name, "experiment") + "-" + id.Short(s.idGen)
	}
	if cfg.StartAt.IsZero() {
		cfg.StartAt = now
	}
	for i, g := range cfg.TargetGames {
		cfg.TargetGames[i] = strings.TrimSpace(g)
	}
	cfg.CreatedAt = now
	cfg.Active = true
	cfg.ParticipantCount = 0
	cfg.Result = nil
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	if _, err := s.store.Get(ctx, cfg.ID); err == nil {
		return domain.Config{}, fmt.Errorf("experiment %q already exists: %w", cfg.ID, apperrors.ErrInvalidInput)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return domain.Config{}, err
	}
	if err := s.store.Create(ctx, cfg); err != nil {
		return domain.Config{}, err
	}
	s.logger.Info("experiment created", "experiment_id", cfg.ID, "variants", len(cfg.Variants), "target_games", cfg.TargetGames)
	return cfg, nil
}

// Assign picks the variant of the oldest running experiment targeting
// gameID.
func (s *ExperimentService) Assign(ctx context.Context, playerID, gameID string) (domain.Config, domain.Variant, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return domain.Config{}, domain.Variant{}, err
	}
	now := s.clock.Now()
	var candidates []domain.Config
	for _, cfg := range all {
		if cfg.Running(now) && cfg.Targets(gameID) {
			candidates = append(candidates, cfg)
		}
	}
	if len(candidates) == 0 {
		return domain.Config{}, domain.Variant{}, apperrors.NotFound("running experiment for game", gameID)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].StartAt.Equal(candidates[j].StartAt) {
			return candidates[i].StartAt.Before(candidates[j].StartAt)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	cfg := candidates[0]
	variant, ok := domain.Pick(cfg.Variants, domain.Bucket(playerID, gameID))
	if !ok {
		return domain.Config{}, domain.Variant{}, apperrors.NotFound("variant in experiment", cfg.ID)
	}
	return cfg, variant, nil
}

// Record appends a sample under the experiment lock. Samples for stopped
// experiments are dropped.
func (s *ExperimentService) Record(ctx context.Context, sample domain.MetricSample) (bool, error) {
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = s.clock.Now()
	}
	first := false
	err := s.withExperiment(ctx, sample.ExperimentID, func(cfg *domain.Config) (bool, error) {
		if _, ok := cfg.Variant(sample.VariantID); !ok {
			return false, apperrors.NotFound("variant", sample.ExperimentID+"/"+sample.VariantID)
		}
		if !cfg.Active {
			s.logger.Debug("sample for stopped experiment dropped", "experiment_id", cfg.ID, "player_id", sample.PlayerID)
			return false, nil
		}
		var err error
		first, err = s.samples.Append(ctx, sample)
		if err != nil || !first {
			return false, err
		}
		cfg.ParticipantCount++
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (s *ExperimentService) Samples(ctx context.Context, experimentID string) (domain.Config, []domain.MetricSample, error) {
	cfg, err := s.store.Get(ctx, experimentID)
	if err != nil {
		return domain.Config{}, nil, err
	}
	samples, err := s.samples.Samples(ctx, experimentID)
	if err != nil {
		return domain.Config{}, nil, err
	}
	return cfg, samples, nil
}

// Stop deactivates the experiment and stores its final analysis. The second
// return reports whether this call did the stopping.
func (s *ExperimentService) Stop(ctx context.Context, experimentID, reason string) (domain.Result, bool, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "stopped"
	}
	var (
		result  domain.Result
		stopped bool
	)
	err := s.withExperiment(ctx, experimentID, func(cfg *domain.Config) (bool, error) {
		if cfg.Result != nil {
			result = *cfg.Result
			return false, nil
		}
		samples, err := s.samples.Samples(ctx, experimentID)
		if err != nil {
			return false, err
		}
		result = domain.Result{
			ExperimentID: cfg.ID,
			Reason:       reason,
			StoppedAt:    s.clock.Now(),
			Results:      domain.AnalyzeAll(cfg.Variants, samples),
		}
		result.Report, err = domain.RenderReport(*cfg, result, domain.Participants(samples))
		if err != nil {
			return false, err
		}
		cfg.Active = false
		cfg.Result = &result
		stopped = true
		return true, nil
	})
	if err != nil {
		return domain.Result{}, false, err
	}
	if stopped {
		s.logger.Info("experiment stopped", "experiment_id", experimentID, "reason", reason)
	}
	return result, stopped, nil
}

func (s *ExperimentService) Get(ctx context.Context, experimentID string) (domain.Config, error) {
	return s.store.Get(ctx, experimentID)
}

func (s *ExperimentService) List(ctx context.Context) ([]domain.Config, error) {
	return s.store.List(ctx)
}

func (s *ExperimentService) Dashboard(ctx context.Context, experimentID string) (domain.Dashboard, error) {
	cfg, samples, err := s.Samples(ctx, experimentID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	alerts, err := s.alerts.Recent(ctx, experimentID, domain.AlertHistory)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return domain.BuildDashboard(cfg, samples, alerts, s.clock.Now()), nil
}

func (s *ExperimentService) RecordAlert(ctx context.Context, alert domain.Alert) error {
	if _, err := s.store.Get(ctx, alert.ExperimentID); err != nil {
		return err
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = s.clock.Now()
	}
	return s.alerts.Append(ctx, alert)
}

func (s *ExperimentService) Prune(ctx context.Context, cutoff time.Time) (int, int, error) {
	samples, err := s.samples.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}
	alerts, err := s.alerts.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return samples, 0, err
	}
	if samples > 0 || alerts > 0 {
		s.logger.Info("pruned experiment data", "cutoff", cutoff, "samples", samples, "alerts", alerts)
	}
	return samples, alerts, nil
}

// withExperiment loads, mutates and saves one experiment under its lock. fn
// returns false to skip the save.
func (s *ExperimentService) withExperiment(ctx context.Context, experimentID string, fn func(*domain.Config) (bool, error)) error {
	unlock, err := s.locks.Lock(ctx, "experiment/"+experimentID)
	if err != nil {
		return err
	}
	defer unlock()
	cfg, err := s.store.Get(ctx, experimentID)
	if err != nil {
		return err
	}
	changed, err := fn(&cfg)
	if err != nil || !changed {
		return err
	}
	return s.store.Update(ctx, cfg)
}
