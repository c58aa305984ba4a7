package usecase

import (
	"context"
	"errors"

	hclog "github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	diffdto "gametune/internal/modules/difficulty/dto"
	diffin "gametune/internal/modules/difficulty/port/in"
	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	"gametune/internal/modules/gameplay/domain"
	"gametune/internal/modules/gameplay/dto"
	gamein "gametune/internal/modules/gameplay/port/in"
	"gametune/internal/modules/gameplay/service"
	perfdto "gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
)

const tracerName = "gametune/internal/modules/gameplay"

type Interactor struct {
	svc         *service.GameplayService
	performance perfin.Usecase
	difficulty  diffin.Usecase
	experiments expin.Usecase
	tracer      trace.Tracer
	logger      hclog.Logger
}

func NewInteractor(svc *service.GameplayService, performance perfin.Usecase, difficulty diffin.Usecase, experiments expin.Usecase) gamein.Usecase {
	return &Interactor{
		svc:         svc,
		performance: performance,
		difficulty:  difficulty,
		experiments: experiments,
		tracer:      otel.Tracer(tracerName),
		logger:      svc.Logger(),
	}
}

func (i *Interactor) GetGameParameters(ctx context.Context, input dto.ResolveInput) (out dto.ParametersOutput, err error) {
	ctx, span := i.start(ctx, "GetGameParameters", input.GameID, input.PlayerID)
	defer func() { end(span, err) }()

	gameID, playerID, err := i.svc.Key(input.GameID, input.PlayerID)
	if err != nil {
		return dto.ParametersOutput{}, err
	}
	res, err := i.resolve(ctx, gameID, playerID, input.PlayerLevel)
	if err != nil {
		return dto.ParametersOutput{}, err
	}
	span.SetAttributes(attribute.String("experiment_id", res.Assignment.ExperimentID), attribute.String("variant_id", res.Assignment.VariantID))
	return toParametersOutput(gameID, playerID, res), nil
}

func (i *Interactor) SubmitSessionResult(ctx context.Context, input dto.SubmitSessionInput) (out dto.SubmitSessionOutput, err error) {
	ctx, span := i.start(ctx, "SubmitSessionResult", input.GameID, input.PlayerID)
	defer func() { end(span, err) }()

	gameID, playerID, err := i.svc.Key(input.GameID, input.PlayerID)
	if err != nil {
		return dto.SubmitSessionOutput{}, err
	}
	var params gameparams.GameParameters
	if input.Params != nil {
		params = *input.Params
	} else {
		res, err := i.resolve(ctx, gameID, playerID, input.PlayerLevel)
		if err != nil {
			return dto.SubmitSessionOutput{}, err
		}
		params = res.Params
	}

	perf, err := i.performance.RecordSession(ctx, perfdto.RecordSessionInput{GameID: gameID, PlayerID: playerID, Parameters: params, Result: input.Result})
	if err != nil {
		return dto.SubmitSessionOutput{}, err
	}
	out = dto.SubmitSessionOutput{SessionsRecorded: perf.Adaptive.SessionsRecorded}
	if n := len(perf.Sessions); n > 0 {
		out.SessionID = perf.Sessions[n-1].ID
	}

	out.Evaluation, err = i.difficulty.Evaluate(ctx, gameID, playerID)
	if err != nil {
		return dto.SubmitSessionOutput{}, err
	}

	assignment, err := i.assign(ctx, gameID, playerID)
	if err != nil || !assignment.Found() {
		return out, err
	}
	metric, err := i.experiments.RecordMetric(ctx, expdto.RecordMetricInput{
		ExperimentID:      assignment.ExperimentID,
		VariantID:         assignment.VariantID,
		PlayerID:          playerID,
		GameID:            gameID,
		TotalProblems:     input.Result.TotalProblems,
		ProblemsAttempted: input.Result.ProblemsAttempted,
		HintsUsed:         input.Result.HintsUsed,
		Retries:           input.Result.Retries,
		Accuracy:          input.Result.Accuracy,
		Score:             input.Result.Score,
	})
	if err != nil {
		return dto.SubmitSessionOutput{}, err
	}
	out.ExperimentID, out.VariantID = assignment.ExperimentID, assignment.VariantID
	out.FirstParticipation = metric.FirstParticipation
	if metric.FirstParticipation {
		_, err = i.performance.UpdateAdaptive(ctx, gameID, playerID, func(u *perfdto.AdaptiveUpdate) error {
			i.svc.Enroll(u, assignment)
			return nil
		})
		if err != nil {
			return dto.SubmitSessionOutput{}, err
		}
		i.logger.Info("player enrolled", "experiment_id", assignment.ExperimentID, "variant_id", assignment.VariantID, "game_id", gameID, "player_id", playerID)
	}
	return out, nil
}

func (i *Interactor) SetDebugMode(ctx context.Context, input dto.DebugInput) (dto.DebugOutput, error) {
	mode, err := i.svc.SetDebug(ctx, input.Enabled, input.Patch)
	if err != nil {
		return dto.DebugOutput{}, err
	}
	return toDebugOutput(mode), nil
}

func (i *Interactor) DebugMode(ctx context.Context) (dto.DebugOutput, error) {
	mode, err := i.svc.Debug(ctx)
	if err != nil {
		return dto.DebugOutput{}, err
	}
	return toDebugOutput(mode), nil
}

func (i *Interactor) resolve(ctx context.Context, gameID, playerID string, level int) (domain.Resolution, error) {
	base, err := i.difficulty.ResolveBaseParameters(ctx, gameID, level)
	if err != nil {
		return domain.Resolution{}, err
	}
	adapted, err := i.difficulty.ApplyAdaptive(ctx, diffdto.ApplyAdaptiveInput{Params: base, GameID: gameID, PlayerID: playerID, PlayerLevel: level})
	if err != nil {
		return domain.Resolution{}, err
	}
	assignment, err := i.assign(ctx, gameID, playerID)
	if err != nil {
		return domain.Resolution{}, err
	}
	return i.svc.Resolve(ctx, adapted, assignment)
}

// assign returns an empty assignment when no experiment targets the game.
func (i *Interactor) assign(ctx context.Context, gameID, playerID string) (domain.Assignment, error) {
	out, err := i.experiments.AssignVariant(ctx, playerID, gameID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Assignment{}, nil
	}
	if err != nil {
		return domain.Assignment{}, err
	}
	return domain.Assignment{ExperimentID: out.ExperimentID, VariantID: out.Variant.ID, Overrides: out.Variant.Overrides}, nil
}

func (i *Interactor) start(ctx context.Context, op, gameID, playerID string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "gameplay."+op, trace.WithAttributes(
		attribute.String("game_id", gameID),
		attribute.String("player_id", playerID),
	))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func toParametersOutput(gameID, playerID string, res domain.Resolution) dto.ParametersOutput {
	out := dto.ParametersOutput{
		GameID:       gameID,
		PlayerID:     playerID,
		Params:       res.Params,
		ExperimentID: res.Assignment.ExperimentID,
		VariantID:    res.Assignment.VariantID,
	}
	for _, l := range res.Layers {
		out.Layers = append(out.Layers, string(l))
	}
	return out
}

func toDebugOutput(mode domain.DebugMode) dto.DebugOutput {
	return dto.DebugOutput{Enabled: mode.Enabled, Patch: mode.Patch, SetAt: mode.SetAt}
}
