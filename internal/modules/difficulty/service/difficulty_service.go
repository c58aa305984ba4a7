package service

import (
	"context"
	"errors"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"gonum.org/v1/gonum/stat"

	"gametune/internal/modules/difficulty/domain"
	diffout "gametune/internal/modules/difficulty/port/out"
	perfdto "gametune/internal/modules/performance/dto"
	"gametune/internal/platform/clock"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/logging"
)

type DifficultyService struct {
	clock     clock.Clock
	catalog   diffout.Catalog
	overrides diffout.OverrideStore
	logger    hclog.Logger
}

func NewDifficultyService(clock clock.Clock, catalog diffout.Catalog, overrides diffout.OverrideStore, logger hclog.Logger) *DifficultyService {
	return &DifficultyService{clock: clock, catalog: catalog, overrides: overrides, logger: logging.OrNull(logger).Named("difficulty")}
}

func (s *DifficultyService) Now() time.Time {
	return s.clock.Now()
}

func (s *DifficultyService) Game(ctx context.Context, gameID string) (domain.GameConfig, error) {
	v := apperrors.NewValidator("game lookup")
	v.Check(gameID != "", "game_id", "required", "game id is required")
	if err := v.Err(); err != nil {
		return domain.GameConfig{}, err
	}
	return s.catalog.Game(ctx, gameID)
}

func (s *DifficultyService) Games(ctx context.Context) ([]domain.GameConfig, error) {
	return s.catalog.Games(ctx)
}

// ActiveOverride returns the player's override if one is set and unexpired.
// Expired overrides are removed on sight.
func (s *DifficultyService) ActiveOverride(ctx context.Context, gameID, playerID string) (domain.Override, bool, error) {
	o, err := s.overrides.Get(ctx, gameID, playerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Override{}, false, nil
	}
	if err != nil {
		return domain.Override{}, false, err
	}
	if !o.Active(s.clock.Now()) {
		if err := s.overrides.Delete(ctx, gameID, playerID); err != nil {
			return domain.Override{}, false, err
		}
		s.logger.Debug("manual override expired", "game_id", gameID, "player_id", playerID)
		return domain.Override{}, false, nil
	}
	return o, true, nil
}

func (s *DifficultyService) PutOverride(ctx context.Context, gameID, playerID string, patch gameparams.Patch, ttl time.Duration, note string) (domain.Override, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return domain.Override{}, err
	}
	if ttl <= 0 {
		ttl = domain.DefaultOverrideTTL
	}
	now := s.clock.Now()
	o := domain.Override{GameID: gameID, PlayerID: playerID, Patch: patch, Note: note, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	if err := s.overrides.Put(ctx, o); err != nil {
		return domain.Override{}, err
	}
	s.logger.Info("manual override set", "game_id", gameID, "player_id", playerID, "fields", patch.Fields(), "expires_at", o.ExpiresAt)
	return o, nil
}

func (s *DifficultyService) DeleteOverride(ctx context.Context, gameID, playerID string) error {
	return s.overrides.Delete(ctx, gameID, playerID)
}

func (s *DifficultyService) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return s.overrides.PurgeExpired(ctx, now)
}

// ObserveLevel records the highest level the player has resolved at. Moving
// up a level resets the adaptive offset so the new level modifier takes over.
// Lookups at a lower level leave the stored level and offset alone.
func (s *DifficultyService) ObserveLevel(u *perfdto.AdaptiveUpdate, level int) bool {
	switch {
	case level <= u.CurrentLevel:
		return false
	case u.CurrentLevel == 0:
		u.CurrentLevel = level
		return false
	}
	reset := gameparams.Delta{
		TimeLimitMS:      -u.State.Offset.TimeLimitMS,
		HintAvailability: -u.State.Offset.HintAvailability,
		ProblemCount:     -u.State.Offset.ProblemCount,
		ConceptDensity:   -u.State.Offset.ConceptDensity,
	}
	s.record(u, domain.ReasonLevelUp, reset, 0, "")
	u.State.Offset = gameparams.Delta{}
	u.CurrentLevel = level
	return true
}

// Step runs the adaptive rule once per lifetime session count. params are
// the base parameters without the offset.
func (s *DifficultyService) Step(u *perfdto.AdaptiveUpdate, settings domain.AdaptiveSettings, params gameparams.GameParameters) (domain.Decision, bool) {
	if u.State.SessionsRecorded <= u.State.LastEvaluatedSession {
		return domain.Decision{}, false
	}
	u.State.LastEvaluatedSession = u.State.SessionsRecorded
	effective := params.Shift(u.State.Offset)
	decision := domain.Decide(settings, effective, u.Accuracies, u.State.SessionsRecorded-u.State.LastAdjustedSession)
	if decision.Outcome == domain.OutcomeAdjusted {
		s.Adjust(u, decision.Reason, decision.Delta, decision.SuccessRate, "")
	}
	return decision, true
}

// Adjust adds delta to the offset, logs it and restarts the cooldown.
func (s *DifficultyService) Adjust(u *perfdto.AdaptiveUpdate, reason domain.Reason, delta gameparams.Delta, successRate float64, note string) {
	u.State.Offset = u.State.Offset.Add(delta)
	s.record(u, reason, delta, successRate, note)
}

func (s *DifficultyService) record(u *perfdto.AdaptiveUpdate, reason domain.Reason, delta gameparams.Delta, successRate float64, note string) {
	u.State.LastAdjustedSession = u.State.SessionsRecorded
	u.Append = append(u.Append, perfdto.Adjustment{
		At:            s.clock.Now(),
		Reason:        string(reason),
		Delta:         delta,
		SuccessRate:   successRate,
		SessionNumber: u.State.SessionsRecorded,
		Note:          note,
	})
}

// SuccessRate is the mean accuracy over the configured window.
func SuccessRate(settings domain.AdaptiveSettings, accuracies []float64) float64 {
	if len(accuracies) == 0 {
		return 0
	}
	window := settings.WithDefaults().SuccessRateWindow
	if len(accuracies) > window {
		accuracies = accuracies[len(accuracies)-window:]
	}
	return stat.Mean(accuracies, nil)
}
