package in

import (
	"context"

	perfdto "gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
)

type CLIHandler struct {
	usecase perfin.Usecase
}

func NewCLIHandler(usecase perfin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context, gameID, playerID string) (perfdto.PerformanceOutput, error) {
	return h.usecase.GetPerformance(ctx, gameID, playerID)
}
