package out

import (
	"context"
	"time"

	"gametune/internal/modules/difficulty/domain"
)

type Catalog interface {
	// Game returns apperrors.ErrNotFound for an unknown game id.
	Game(ctx context.Context, gameID string) (domain.GameConfig, error)
	Games(ctx context.Context) ([]domain.GameConfig, error)
}

type OverrideStore interface {
	Put(ctx context.Context, override domain.Override) error
	// Get returns apperrors.ErrNotFound when the player has no override.
	Get(ctx context.Context, gameID, playerID string) (domain.Override, error)
	Delete(ctx context.Context, gameID, playerID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
