package in

import (
	"context"

	"gametune/internal/modules/gameplay/dto"
)

type Usecase interface {
	// GetGameParameters resolves base, adaptive, experiment and debug layers.
	// Without a new session in between, two calls return the same result.
	GetGameParameters(ctx context.Context, input dto.ResolveInput) (dto.ParametersOutput, error)
	SubmitSessionResult(ctx context.Context, input dto.SubmitSessionInput) (dto.SubmitSessionOutput, error)
	SetDebugMode(ctx context.Context, input dto.DebugInput) (dto.DebugOutput, error)
	DebugMode(ctx context.Context) (dto.DebugOutput, error)
}
