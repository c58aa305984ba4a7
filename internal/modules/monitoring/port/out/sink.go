package out

import (
	"context"

	expdto "gametune/internal/modules/experiment/dto"
)

// AlertSink receives alerts raised by monitors. Emit must not block for long.
type AlertSink interface {
	Emit(ctx context.Context, alert expdto.Alert) error
}
