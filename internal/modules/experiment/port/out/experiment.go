package out

import (
	"context"
	"time"

	"gametune/internal/modules/experiment/domain"
)

type Store interface {
	Create(ctx context.Context, cfg domain.Config) error
	// Get returns apperrors.ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (domain.Config, error)
	Update(ctx context.Context, cfg domain.Config) error
	// List returns experiments oldest first.
	List(ctx context.Context) ([]domain.Config, error)
}

// SampleStore is append-only apart from retention pruning.
type SampleStore interface {
	// Append stores s and reports whether it is the first sample of its
	// player and game in the experiment.
	Append(ctx context.Context, s domain.MetricSample) (bool, error)
	// Samples returns a copy of the experiment's samples in recording order.
	Samples(ctx context.Context, experimentID string) ([]domain.MetricSample, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type AlertLog interface {
	Append(ctx context.Context, alert domain.Alert) error
	// Recent returns up to limit alerts, newest last.
	Recent(ctx context.Context, experimentID string, limit int) ([]domain.Alert, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
