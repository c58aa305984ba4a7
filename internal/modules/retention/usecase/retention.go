package usecase

import (
	"context"
	"errors"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	diffin "gametune/internal/modules/difficulty/port/in"
	expin "gametune/internal/modules/experiment/port/in"
	perfin "gametune/internal/modules/performance/port/in"
	"gametune/internal/modules/retention/dto"
	retin "gametune/internal/modules/retention/port/in"
	"gametune/internal/modules/retention/service"
)

type Interactor struct {
	svc         *service.SweepService
	performance perfin.Usecase
	experiments expin.Usecase
	difficulty  diffin.Usecase
	logger      hclog.Logger
}

func NewInteractor(svc *service.SweepService, performance perfin.Usecase, experiments expin.Usecase, difficulty diffin.Usecase) retin.Usecase {
	return &Interactor{svc: svc, performance: performance, experiments: experiments, difficulty: difficulty, logger: svc.Logger()}
}

// RunOnce keeps going after a failing step so one bad store does not block
// the others; the errors are joined.
func (i *Interactor) RunOnce(ctx context.Context) (dto.SweepReport, error) {
	started := i.svc.Now()
	report := dto.SweepReport{Cutoff: i.svc.Cutoff(), StartedAt: started}
	var errs []error

	perf, err := i.performance.PruneOlderThan(ctx, report.Cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	report.PerformanceRecords = perf.Records
	report.RecordsDeleted = perf.RecordsDeleted
	report.SessionsRemoved = perf.SessionsRemoved
	report.AdjustmentsRemoved = perf.AdjustmentsRemoved

	exp, err := i.experiments.PruneOlderThan(ctx, report.Cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	report.SamplesRemoved = exp.SamplesRemoved
	report.AlertsRemoved = exp.AlertsRemoved

	report.OverridesPurged, err = i.difficulty.PurgeExpiredOverrides(ctx, started)
	if err != nil {
		errs = append(errs, err)
	}

	report.Duration = i.svc.Now().Sub(started).String()
	i.logger.Info("retention sweep finished",
		"cutoff", report.Cutoff,
		"records_deleted", report.RecordsDeleted,
		"sessions_removed", report.SessionsRemoved,
		"samples_removed", report.SamplesRemoved,
		"overrides_purged", report.OverridesPurged,
	)
	return report, errors.Join(errs...)
}

func (i *Interactor) Run(ctx context.Context) error {
	t := time.NewTicker(i.svc.Interval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := i.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				i.logger.Warn("retention sweep failed", "error", err)
			}
		}
	}
}
