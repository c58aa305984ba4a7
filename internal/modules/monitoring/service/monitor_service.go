package service

import (
	"context"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	expdto "gametune/internal/modules/experiment/dto"
	"gametune/internal/modules/monitoring/domain"
	monout "gametune/internal/modules/monitoring/port/out"
	"gametune/internal/platform/clock"
	"gametune/internal/platform/logging"
)

type MonitorService struct {
	clock  clock.Clock
	sinks  []monout.AlertSink
	logger hclog.Logger
}

func NewMonitorService(clock clock.Clock, logger hclog.Logger, sinks ...monout.AlertSink) *MonitorService {
	return &MonitorService{clock: clock, sinks: sinks, logger: logging.OrNull(logger).Named("monitoring")}
}

// Evaluate runs the rules and emits the alerts latch lets through. A nil
// latch emits everything.
func (s *MonitorService) Evaluate(ctx context.Context, exp expdto.ExperimentOutput, results []expdto.StatisticalResult, latch *domain.Latch) domain.Evaluation {
	ev := domain.Evaluate(exp, results, s.clock.Now())
	if latch != nil {
		ev.Alerts = latch.Fresh(ev.Alerts)
	}
	for _, alert := range ev.Alerts {
		for _, sink := range s.sinks {
			if err := sink.Emit(ctx, alert); err != nil {
				s.logger.Warn("alert sink failed", "experiment_id", exp.ID, "kind", alert.Kind, "error", err)
			}
		}
	}
	return ev
}

func (s *MonitorService) Now() time.Time {
	return s.clock.Now()
}

func (s *MonitorService) Logger() hclog.Logger {
	return s.logger
}
