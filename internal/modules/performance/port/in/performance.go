package in

import (
	"context"
	"time"

	"gametune/internal/modules/performance/dto"
)

type Usecase interface {
	RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.PerformanceOutput, error)
	GetPerformance(ctx context.Context, gameID, playerID string) (dto.PerformanceOutput, error)
	// UpdateAdaptive runs fn against the record under its key lock and
	// persists what fn wrote. A record that does not exist yet yields
	// apperrors.ErrNotFound.
	UpdateAdaptive(ctx context.Context, gameID, playerID string, fn func(*dto.AdaptiveUpdate) error) (dto.PerformanceOutput, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (dto.PruneReport, error)
}
