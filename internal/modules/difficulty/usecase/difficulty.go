package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"gametune/internal/modules/difficulty/domain"
	"gametune/internal/modules/difficulty/dto"
	diffin "gametune/internal/modules/difficulty/port/in"
	"gametune/internal/modules/difficulty/service"
	perfdto "gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/logging"
)

type Interactor struct {
	svc         *service.DifficultyService
	performance perfin.Usecase
	logger      hclog.Logger
}

func NewInteractor(svc *service.DifficultyService, performance perfin.Usecase, logger hclog.Logger) diffin.Usecase {
	return &Interactor{svc: svc, performance: performance, logger: logging.OrNull(logger).Named("difficulty")}
}

func (i *Interactor) ResolveBaseParameters(ctx context.Context, gameID string, playerLevel int) (gameparams.GameParameters, error) {
	cfg, err := i.svc.Game(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return gameparams.GameParameters{}, err
	}
	return cfg.Resolve(playerLevel), nil
}

func (i *Interactor) ApplyAdaptive(ctx context.Context, input dto.ApplyAdaptiveInput) (gameparams.GameParameters, error) {
	gameID, playerID := strings.TrimSpace(input.GameID), strings.TrimSpace(input.PlayerID)
	cfg, err := i.svc.Game(ctx, gameID)
	if err != nil {
		return gameparams.GameParameters{}, err
	}

	offset := gameparams.Delta{}
	_, err = i.performance.UpdateAdaptive(ctx, gameID, playerID, func(u *perfdto.AdaptiveUpdate) error {
		if i.svc.ObserveLevel(u, input.PlayerLevel) {
			i.logger.Info("level up", "game_id", gameID, "player_id", playerID, "level", u.CurrentLevel)
		}
		if decision, ran := i.svc.Step(u, cfg.Adaptive, input.Params); ran {
			i.logDecision(gameID, playerID, decision)
		}
		offset = u.State.Offset
		return nil
	})
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		i.logger.Debug("no performance history", "game_id", gameID, "player_id", playerID, "err", apperrors.ErrInsufficientData)
	case err != nil:
		return gameparams.GameParameters{}, err
	}

	builder := gameparams.From(input.Params).Shift(offset)
	override, ok, err := i.svc.ActiveOverride(ctx, gameID, playerID)
	if err != nil {
		return gameparams.GameParameters{}, err
	}
	if ok {
		builder.Apply(override.Patch)
	}
	return builder.Build(), nil
}

func (i *Interactor) Evaluate(ctx context.Context, gameID, playerID string) (dto.EvaluationOutput, error) {
	gameID, playerID = strings.TrimSpace(gameID), strings.TrimSpace(playerID)
	cfg, err := i.svc.Game(ctx, gameID)
	if err != nil {
		return dto.EvaluationOutput{}, err
	}
	decision := domain.Decision{Outcome: domain.OutcomeUnchanged}
	perf, err := i.performance.UpdateAdaptive(ctx, gameID, playerID, func(u *perfdto.AdaptiveUpdate) error {
		if d, ran := i.svc.Step(u, cfg.Adaptive, cfg.Resolve(u.CurrentLevel)); ran {
			decision = d
		}
		return nil
	})
	if err != nil {
		return dto.EvaluationOutput{}, err
	}
	i.logDecision(gameID, playerID, decision)
	return toEvaluation(cfg, perf, decision), nil
}

func (i *Interactor) ForceAdjustment(ctx context.Context, input dto.ForceAdjustmentInput) (dto.OverrideOutput, error) {
	gameID, playerID := strings.TrimSpace(input.GameID), strings.TrimSpace(input.PlayerID)
	v := apperrors.NewValidator("manual override")
	v.Check(gameID != "", "game_id", "required", "game id is required")
	v.Check(playerID != "", "player_id", "required", "player id is required")
	v.Check(input.TTL >= 0, "ttl", "non_negative", "ttl must not be negative")
	if err := v.Err(); err != nil {
		return dto.OverrideOutput{}, err
	}
	cfg, err := i.svc.Game(ctx, gameID)
	if err != nil {
		return dto.OverrideOutput{}, err
	}
	override, err := i.svc.PutOverride(ctx, gameID, playerID, input.Patch, input.TTL, input.Note)
	if err != nil {
		return dto.OverrideOutput{}, err
	}

	_, err = i.performance.UpdateAdaptive(ctx, gameID, playerID, func(u *perfdto.AdaptiveUpdate) error {
		i.svc.Adjust(u, domain.ReasonManualOverride, gameparams.Delta{}, service.SuccessRate(cfg.Adaptive, u.Accuracies), overrideNote(override))
		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return dto.OverrideOutput{}, err
	}
	return toOverrideOutput(override), nil
}

func (i *Interactor) ClearOverride(ctx context.Context, gameID, playerID string) error {
	return i.svc.DeleteOverride(ctx, strings.TrimSpace(gameID), strings.TrimSpace(playerID))
}

func (i *Interactor) RecordFeedback(ctx context.Context, input dto.FeedbackInput) (dto.EvaluationOutput, error) {
	gameID, playerID := strings.TrimSpace(input.GameID), strings.TrimSpace(input.PlayerID)
	feedback := domain.Feedback(strings.TrimSpace(input.Feedback))
	v := apperrors.NewValidator("player feedback")
	v.Check(feedback.Valid(), "feedback", "enum", "feedback must be %q or %q", domain.FeedbackTooHard, domain.FeedbackTooEasy)
	if err := v.Err(); err != nil {
		return dto.EvaluationOutput{}, err
	}
	cfg, err := i.svc.Game(ctx, gameID)
	if err != nil {
		return dto.EvaluationOutput{}, err
	}

	decision := domain.Decision{Outcome: domain.OutcomeAdjusted, Reason: domain.ReasonPlayerFeedback}
	perf, err := i.performance.UpdateAdaptive(ctx, gameID, playerID, func(u *perfdto.AdaptiveUpdate) error {
		effective := cfg.Resolve(u.CurrentLevel).Shift(u.State.Offset)
		decision.Delta = domain.HarderDelta(effective)
		if feedback == domain.FeedbackTooHard {
			decision.Delta = domain.EasierDelta(effective)
		}
		decision.SuccessRate = service.SuccessRate(cfg.Adaptive, u.Accuracies)
		i.svc.Adjust(u, domain.ReasonPlayerFeedback, decision.Delta, decision.SuccessRate, string(feedback))
		return nil
	})
	if err != nil {
		return dto.EvaluationOutput{}, err
	}
	i.logDecision(gameID, playerID, decision)
	return toEvaluation(cfg, perf, decision), nil
}

func (i *Interactor) PurgeExpiredOverrides(ctx context.Context, now time.Time) (int, error) {
	return i.svc.PurgeExpired(ctx, now)
}

func (i *Interactor) ListGames(ctx context.Context) ([]dto.GameOutput, error) {
	games, err := i.svc.Games(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GameOutput, 0, len(games))
	for _, g := range games {
		s := g.Adaptive.WithDefaults()
		levels := make([]int, 0, len(g.LevelModifiers))
		for _, m := range g.LevelModifiers {
			levels = append(levels, m.MinLevel)
		}
		sort.Ints(levels)
		out = append(out, dto.GameOutput{
			ID:                g.ID,
			Name:              g.Name,
			Base:              g.Base,
			Levels:            levels,
			SuccessRateWindow: s.SuccessRateWindow,
			MinSuccessRate:    s.MinSuccessRate,
			MaxSuccessRate:    s.MaxSuccessRate,
			CooldownPeriod:    s.CooldownPeriod,
		})
	}
	return out, nil
}

func (i *Interactor) logDecision(gameID, playerID string, d domain.Decision) {
	switch d.Outcome {
	case domain.OutcomeAdjusted:
		i.logger.Info("difficulty adjusted", "game_id", gameID, "player_id", playerID, "reason", d.Reason, "success_rate", d.SuccessRate, "delta", d.Delta)
	case domain.OutcomeInsufficientData:
		i.logger.Debug("adaptive step skipped", "game_id", gameID, "player_id", playerID, "err", apperrors.ErrInsufficientData)
	}
}

func overrideNote(o domain.Override) string {
	note := "fields=" + strings.Join(o.Patch.Fields(), ",") + " until " + o.ExpiresAt.Format(time.RFC3339)
	if o.Note != "" {
		note += ": " + o.Note
	}
	return note
}

func toEvaluation(cfg domain.GameConfig, perf perfdto.PerformanceOutput, d domain.Decision) dto.EvaluationOutput {
	return dto.EvaluationOutput{
		GameID:           perf.GameID,
		PlayerID:         perf.PlayerID,
		Phase:            string(domain.PhaseOf(len(perf.Sessions), perf.Adaptive.SessionsRecorded, perf.Adaptive.LastAdjustedSession, cfg.Adaptive.WithDefaults().CooldownPeriod)),
		Outcome:          string(d.Outcome),
		Reason:           string(d.Reason),
		Delta:            d.Delta,
		SuccessRate:      d.SuccessRate,
		Offset:           perf.Adaptive.Offset,
		SessionsRecorded: perf.Adaptive.SessionsRecorded,
	}
}

func toOverrideOutput(o domain.Override) dto.OverrideOutput {
	return dto.OverrideOutput{GameID: o.GameID, PlayerID: o.PlayerID, Patch: o.Patch, Note: o.Note, CreatedAt: o.CreatedAt, ExpiresAt: o.ExpiresAt}
}
