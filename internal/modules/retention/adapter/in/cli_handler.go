package in

import (
	"context"

	retdto "gametune/internal/modules/retention/dto"
	retin "gametune/internal/modules/retention/port/in"
)

type CLIHandler struct {
	usecase retin.Usecase
}

func NewCLIHandler(usecase retin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Prune(ctx context.Context) (retdto.SweepReport, error) {
	return h.usecase.RunOnce(ctx)
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}
