package in

import (
	"context"

	"gametune/internal/modules/retention/dto"
)

type Usecase interface {
	// RunOnce prunes everything older than the retention window.
	RunOnce(ctx context.Context) (dto.SweepReport, error)
	// Run sweeps on every interval tick until ctx is done.
	Run(ctx context.Context) error
}
