package service

import (
	"context"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"gametune/internal/modules/gameplay/domain"
	gameout "gametune/internal/modules/gameplay/port/out"
	perfdto "gametune/internal/modules/performance/dto"
	"gametune/internal/platform/clock"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/logging"
)

// ReasonExperiment is the adjustment reason logged on enrollment.
const ReasonExperiment = "experiment"

type GameplayService struct {
	clock  clock.Clock
	debug  gameout.DebugStore
	logger hclog.Logger
}

func NewGameplayService(clock clock.Clock, debug gameout.DebugStore, logger hclog.Logger) *GameplayService {
	return &GameplayService{clock: clock, debug: debug, logger: logging.OrNull(logger).Named("gameplay")}
}

func (s *GameplayService) Logger() hclog.Logger {
	return s.logger
}

// Enroll appends the audit entry for a player's first session in an
// experiment. It changes no parameters.
func (s *GameplayService) Enroll(u *perfdto.AdaptiveUpdate, assignment domain.Assignment) {
	u.Append = append(u.Append, perfdto.Adjustment{
		At:            s.clock.Now(),
		Reason:        ReasonExperiment,
		SessionNumber: u.State.SessionsRecorded,
		Note:          "enrolled in " + assignment.ExperimentID + " variant " + assignment.VariantID,
	})
}

// Key validates and trims a game and player id pair.
func (s *GameplayService) Key(gameID, playerID string) (string, string, error) {
	gameID, playerID = strings.TrimSpace(gameID), strings.TrimSpace(playerID)
	v := apperrors.NewValidator("request")
	v.Check(gameID != "", "game_id", "required", "game id is required")
	v.Check(playerID != "", "player_id", "required", "player id is required")
	return gameID, playerID, v.Err()
}

func (s *GameplayService) Debug(ctx context.Context) (domain.DebugMode, error) {
	return s.debug.Get(ctx)
}

// SetDebug replaces the debug overlay. Disabling keeps no patch.
func (s *GameplayService) SetDebug(ctx context.Context, enabled bool, patch gameparams.Patch) (domain.DebugMode, error) {
	mode := domain.DebugMode{Enabled: enabled, SetAt: s.clock.Now()}
	if enabled {
		mode.Patch = patch
	}
	if err := s.debug.Set(ctx, mode); err != nil {
		return domain.DebugMode{}, err
	}
	s.logger.Info("debug mode set", "enabled", enabled, "fields", strings.Join(patch.Fields(), ","))
	return mode, nil
}

func (s *GameplayService) Resolve(ctx context.Context, adapted gameparams.GameParameters, assignment domain.Assignment) (domain.Resolution, error) {
	debug, err := s.debug.Get(ctx)
	if err != nil {
		return domain.Resolution{}, err
	}
	return domain.Overlay(adapted, assignment, debug), nil
}
