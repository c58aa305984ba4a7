package in

import (
	"context"
	"time"

	"gametune/internal/modules/experiment/dto"
)

type Usecase interface {
	CreateExperiment(ctx context.Context, input dto.CreateExperimentInput) (dto.ExperimentOutput, error)
	// AssignVariant returns apperrors.ErrNotFound when no running experiment
	// targets the game.
	AssignVariant(ctx context.Context, playerID, gameID string) (dto.AssignmentOutput, error)
	RecordMetric(ctx context.Context, input dto.RecordMetricInput) (dto.RecordMetricOutput, error)
	Analyze(ctx context.Context, experimentID string) ([]dto.StatisticalResult, error)
	// StopExperiment is idempotent: stopping a stopped experiment returns the
	// stored result unchanged.
	StopExperiment(ctx context.Context, experimentID, reason string) (dto.ResultOutput, error)
	Dashboard(ctx context.Context, experimentID string) (dto.DashboardOutput, error)
	List(ctx context.Context) ([]dto.ExperimentOutput, error)
	Get(ctx context.Context, experimentID string) (dto.ExperimentOutput, error)
	RecordAlert(ctx context.Context, alert dto.Alert) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (dto.PruneReport, error)
	// Subscribe registers a listener for experiment start and stop.
	Subscribe(listener LifecycleListener)
}

// LifecycleListener is notified after an experiment starts or stops.
// Callbacks must not block.
type LifecycleListener interface {
	ExperimentStarted(ctx context.Context, experiment dto.ExperimentOutput)
	ExperimentStopped(ctx context.Context, experimentID string)
}
