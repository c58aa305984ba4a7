package in

import (
	"context"
	"time"

	diffdto "gametune/internal/modules/difficulty/dto"
	diffin "gametune/internal/modules/difficulty/port/in"
	"gametune/internal/platform/gameparams"
)

type CLIHandler struct {
	usecase diffin.Usecase
}

func NewCLIHandler(usecase diffin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Games(ctx context.Context) ([]diffdto.GameOutput, error) {
	return h.usecase.ListGames(ctx)
}

func (h CLIHandler) Override(ctx context.Context, gameID, playerID string, patch gameparams.Patch, ttl time.Duration, note string) (diffdto.OverrideOutput, error) {
	return h.usecase.ForceAdjustment(ctx, diffdto.ForceAdjustmentInput{GameID: gameID, PlayerID: playerID, Patch: patch, TTL: ttl, Note: note})
}

func (h CLIHandler) ClearOverride(ctx context.Context, gameID, playerID string) error {
	return h.usecase.ClearOverride(ctx, gameID, playerID)
}

func (h CLIHandler) Feedback(ctx context.Context, gameID, playerID, feedback string) (diffdto.EvaluationOutput, error) {
	return h.usecase.RecordFeedback(ctx, diffdto.FeedbackInput{GameID: gameID, PlayerID: playerID, Feedback: feedback})
}

func (h CLIHandler) Evaluate(ctx context.Context, gameID, playerID string) (diffdto.EvaluationOutput, error) {
	return h.usecase.Evaluate(ctx, gameID, playerID)
}
