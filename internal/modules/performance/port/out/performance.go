package out

import (
	"context"

	"gametune/internal/modules/performance/domain"
)

type Store interface {
	// Load returns apperrors.ErrNotFound for an unknown key.
	Load(ctx context.Context, key domain.Key) (domain.PlayerPerformance, error)
	Save(ctx context.Context, perf domain.PlayerPerformance) error
	Delete(ctx context.Context, key domain.Key) error
	Keys(ctx context.Context) ([]domain.Key, error)
}
