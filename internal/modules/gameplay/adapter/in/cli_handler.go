package in

import (
	"context"

	gamedto "gametune/internal/modules/gameplay/dto"
	gamein "gametune/internal/modules/gameplay/port/in"
	"gametune/internal/platform/gameparams"
)

type CLIHandler struct {
	usecase gamein.Usecase
}

func NewCLIHandler(usecase gamein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Params(ctx context.Context, gameID, playerID string, level int) (gamedto.ParametersOutput, error) {
	return h.usecase.GetGameParameters(ctx, gamedto.ResolveInput{GameID: gameID, PlayerID: playerID, PlayerLevel: level})
}

func (h CLIHandler) Submit(ctx context.Context, input gamedto.SubmitSessionInput) (gamedto.SubmitSessionOutput, error) {
	return h.usecase.SubmitSessionResult(ctx, input)
}

func (h CLIHandler) SetDebug(ctx context.Context, enabled bool, patch gameparams.Patch) (gamedto.DebugOutput, error) {
	return h.usecase.SetDebugMode(ctx, gamedto.DebugInput{Enabled: enabled, Patch: patch})
}

func (h CLIHandler) Debug(ctx context.Context) (gamedto.DebugOutput, error) {
	return h.usecase.DebugMode(ctx)
}
