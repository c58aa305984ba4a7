package out

import (
	"context"

	"gametune/internal/modules/gameplay/domain"
)

// DebugStore holds the process-wide debug overlay.
type DebugStore interface {
	Get(ctx context.Context) (domain.DebugMode, error)
	Set(ctx context.Context, mode domain.DebugMode) error
}
