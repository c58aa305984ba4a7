package out

import (
	"context"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	monout "gametune/internal/modules/monitoring/port/out"
	"gametune/internal/platform/logging"
)

type LogSink struct {
	logger hclog.Logger
}

func NewLogSink(logger hclog.Logger) monout.AlertSink {
	return LogSink{logger: logging.OrNull(logger).Named("alerts")}
}

func (s LogSink) Emit(_ context.Context, a expdto.Alert) error {
	args := []any{"experiment_id", a.ExperimentID, "kind", a.Kind, "metric", a.Metric, "variant_id", a.VariantID, "value", a.Value, "threshold", a.Threshold}
	switch a.Severity {
	case "critical":
		s.logger.Error(a.Message, args...)
	case "warning":
		s.logger.Warn(a.Message, args...)
	default:
		s.logger.Info(a.Message, args...)
	}
	return nil
}

// ExperimentLogSink stores alerts on the experiment so the dashboard can
// show them.
type ExperimentLogSink struct {
	experiments expin.Usecase
}

func NewExperimentLogSink(experiments expin.Usecase) monout.AlertSink {
	return ExperimentLogSink{experiments: experiments}
}

func (s ExperimentLogSink) Emit(ctx context.Context, a expdto.Alert) error {
	return s.experiments.RecordAlert(ctx, a)
}

type MemorySink struct {
	mu     sync.Mutex
	alerts []expdto.Alert
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, a expdto.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *MemorySink) Alerts() []expdto.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]expdto.Alert(nil), s.alerts...)
}
