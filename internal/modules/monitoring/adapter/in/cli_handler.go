package in

import (
	"context"

	mondto "gametune/internal/modules/monitoring/dto"
	monin "gametune/internal/modules/monitoring/port/in"
)

type CLIHandler struct {
	usecase monin.Usecase
}

func NewCLIHandler(usecase monin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context, experimentID string) (mondto.CheckOutput, error) {
	return h.usecase.CheckNow(ctx, experimentID)
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}
