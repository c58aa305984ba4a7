package in

import (
	"context"

	expin "gametune/internal/modules/experiment/port/in"
	mondto "gametune/internal/modules/monitoring/dto"
)

type Usecase interface {
	expin.LifecycleListener
	// Run resumes monitoring for every active experiment and blocks until
	// ctx is done, then drains all monitors. Lifecycle events received
	// before Run are ignored.
	Run(ctx context.Context) error
	// Shutdown cancels every monitor and waits for them to exit.
	Shutdown()
	// Monitored lists the experiments with a live monitor, sorted.
	Monitored() []string
	// CheckNow evaluates one experiment immediately.
	CheckNow(ctx context.Context, experimentID string) (mondto.CheckOutput, error)
}
