package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"gametune/internal/modules/experiment/domain"
	"gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	"gametune/internal/modules/experiment/service"
	"gametune/internal/platform/retry"
)

type Interactor struct {
	svc *service.ExperimentService

	mu        sync.RWMutex
	listeners []expin.LifecycleListener
}

func NewInteractor(svc *service.ExperimentService) expin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Subscribe(listener expin.LifecycleListener) {
	if listener == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = append(i.listeners, listener)
}

func (i *Interactor) CreateExperiment(ctx context.Context, input dto.CreateExperimentInput) (dto.ExperimentOutput, error) {
	cfg, err := i.svc.Create(ctx, toDomainConfig(input))
	if err != nil {
		return dto.ExperimentOutput{}, err
	}
	out := toExperimentOutput(cfg)
	for _, l := range i.snapshotListeners() {
		l.ExperimentStarted(ctx, out)
	}
	return out, nil
}

func (i *Interactor) AssignVariant(ctx context.Context, playerID, gameID string) (dto.AssignmentOutput, error) {
	cfg, variant, err := i.svc.Assign(ctx, strings.TrimSpace(playerID), strings.TrimSpace(gameID))
	if err != nil {
		return dto.AssignmentOutput{}, err
	}
	return dto.AssignmentOutput{ExperimentID: cfg.ID, Variant: toVariantOutput(variant)}, nil
}

func (i *Interactor) RecordMetric(ctx context.Context, input dto.RecordMetricInput) (dto.RecordMetricOutput, error) {
	sample := domain.NewSample(input.ExperimentID, input.VariantID, input.PlayerID, input.GameID, time.Time{}, domain.SessionOutcome{
		TotalProblems:     input.TotalProblems,
		ProblemsAttempted: input.ProblemsAttempted,
		HintsUsed:         input.HintsUsed,
		Retries:           input.Retries,
		Accuracy:          input.Accuracy,
		Score:             input.Score,
	})
	var first bool
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		var err error
		first, err = i.svc.Record(ctx, sample)
		return err
	})
	if err != nil {
		return dto.RecordMetricOutput{}, err
	}
	return dto.RecordMetricOutput{FirstParticipation: first, CompletionRate: sample.CompletionRate, EngagementScore: sample.EngagementScore}, nil
}

func (i *Interactor) Analyze(ctx context.Context, experimentID string) ([]dto.StatisticalResult, error) {
	cfg, samples, err := i.svc.Samples(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	return toResultsOutput(domain.AnalyzeAll(cfg.Variants, samples)), nil
}

func (i *Interactor) StopExperiment(ctx context.Context, experimentID, reason string) (dto.ResultOutput, error) {
	var (
		result  domain.Result
		stopped bool
	)
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		var err error
		result, stopped, err = i.svc.Stop(ctx, experimentID, reason)
		return err
	})
	if err != nil {
		return dto.ResultOutput{}, err
	}
	if stopped {
		for _, l := range i.snapshotListeners() {
			l.ExperimentStopped(ctx, experimentID)
		}
	}
	return toResultOutput(result), nil
}

func (i *Interactor) Dashboard(ctx context.Context, experimentID string) (dto.DashboardOutput, error) {
	d, err := i.svc.Dashboard(ctx, experimentID)
	if err != nil {
		return dto.DashboardOutput{}, err
	}
	out := dto.DashboardOutput{
		Experiment:   toExperimentOutput(d.Experiment),
		Results:      toResultsOutput(d.Results),
		Significant:  d.Significant,
		DataQuality:  string(d.DataQuality),
		TotalSamples: d.TotalSamples,
		GeneratedAt:  d.GeneratedAt,
	}
	for _, v := range d.Variants {
		out.Variants = append(out.Variants, dto.VariantSummary{
			VariantID:      v.VariantID,
			Name:           v.Name,
			Weight:         v.Weight,
			Participants:   v.Participants,
			Samples:        v.Samples,
			Accuracy:       v.Accuracy,
			RecentAccuracy: v.RecentAccuracy,
			Completion:     v.Completion,
			Engagement:     v.Engagement,
			Trend:          string(v.Trend),
		})
	}
	for _, a := range d.Alerts {
		out.Alerts = append(out.Alerts, toAlertOutput(a))
	}
	return out, nil
}

func (i *Interactor) List(ctx context.Context) ([]dto.ExperimentOutput, error) {
	all, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExperimentOutput, 0, len(all))
	for _, cfg := range all {
		out = append(out, toExperimentOutput(cfg))
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, experimentID string) (dto.ExperimentOutput, error) {
	cfg, err := i.svc.Get(ctx, experimentID)
	if err != nil {
		return dto.ExperimentOutput{}, err
	}
	return toExperimentOutput(cfg), nil
}

func (i *Interactor) RecordAlert(ctx context.Context, alert dto.Alert) error {
	return i.svc.RecordAlert(ctx, domain.Alert{
		ExperimentID: alert.ExperimentID,
		Kind:         alert.Kind,
		Metric:       domain.Metric(alert.Metric),
		VariantID:    alert.VariantID,
		Value:        alert.Value,
		Threshold:    alert.Threshold,
		Severity:     domain.Severity(alert.Severity),
		Message:      alert.Message,
		RaisedAt:     alert.RaisedAt,
	})
}

func (i *Interactor) PruneOlderThan(ctx context.Context, cutoff time.Time) (dto.PruneReport, error) {
	samples, alerts, err := i.svc.Prune(ctx, cutoff)
	return dto.PruneReport{SamplesRemoved: samples, AlertsRemoved: alerts}, err
}

func (i *Interactor) snapshotListeners() []expin.LifecycleListener {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]expin.LifecycleListener(nil), i.listeners...)
}
