package in

import (
	"context"
	"time"

	"gametune/internal/modules/difficulty/dto"
	"gametune/internal/platform/gameparams"
)

type Usecase interface {
	ResolveBaseParameters(ctx context.Context, gameID string, playerLevel int) (gameparams.GameParameters, error)
	// ApplyAdaptive layers the player's adaptive offset and any active manual
	// override over input.Params. Missing history is not an error.
	ApplyAdaptive(ctx context.Context, input dto.ApplyAdaptiveInput) (gameparams.GameParameters, error)
	Evaluate(ctx context.Context, gameID, playerID string) (dto.EvaluationOutput, error)
	ForceAdjustment(ctx context.Context, input dto.ForceAdjustmentInput) (dto.OverrideOutput, error)
	ClearOverride(ctx context.Context, gameID, playerID string) error
	RecordFeedback(ctx context.Context, input dto.FeedbackInput) (dto.EvaluationOutput, error)
	PurgeExpiredOverrides(ctx context.Context, now time.Time) (int, error)
	ListGames(ctx context.Context) ([]dto.GameOutput, error)
}
