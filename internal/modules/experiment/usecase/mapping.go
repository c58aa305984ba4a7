package usecase

import (
	"gametune/internal/modules/experiment/domain"
	"gametune/internal/modules/experiment/dto"
)

func toDomainConfig(in dto.CreateExperimentInput) domain.Config {
	cfg := domain.Config{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		TargetGames: append([]string(nil), in.TargetGames...),
		SampleSize:  in.SampleSize,
		Monitoring:  domain.DefaultMonitoring(),
	}
	for _, v := range in.Variants {
		cfg.Variants = append(cfg.Variants, domain.Variant{ID: v.ID, Name: v.Name, Weight: v.Weight, Overrides: v.Overrides})
	}
	if m := in.Monitoring; m != nil {
		cfg.Monitoring = domain.MonitoringConfig{Interval: m.Interval}
		for _, th := range m.AlertThresholds {
			cfg.Monitoring.AlertThresholds = append(cfg.Monitoring.AlertThresholds, domain.AlertThreshold{
				Metric:    domain.Metric(th.Metric),
				Condition: domain.Condition(th.Condition),
				Value:     th.Value,
				Severity:  domain.Severity(th.Severity),
			})
		}
		for _, c := range m.AutoStopConditions {
			cfg.Monitoring.AutoStopConditions = append(cfg.Monitoring.AutoStopConditions, domain.AutoStopCondition{
				Type:      domain.AutoStopType(c.Type),
				Threshold: c.Threshold,
				Action:    domain.StopAction(c.Action),
			})
		}
	}
	return cfg
}

func toVariantOutput(v domain.Variant) dto.Variant {
	return dto.Variant{ID: v.ID, Name: v.Name, Weight: v.Weight, Overrides: v.Overrides}
}

func toExperimentOutput(cfg domain.Config) dto.ExperimentOutput {
	out := dto.ExperimentOutput{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Description:      cfg.Description,
		StartAt:          cfg.StartAt,
		EndAt:            cfg.EndAt,
		TargetGames:      append([]string(nil), cfg.TargetGames...),
		SampleSize:       cfg.SampleSize,
		ParticipantCount: cfg.ParticipantCount,
		Active:           cfg.Active,
		CreatedAt:        cfg.CreatedAt,
		Monitoring:       dto.MonitoringConfig{Interval: cfg.Monitoring.Interval},
	}
	for _, v := range cfg.Variants {
		out.Variants = append(out.Variants, toVariantOutput(v))
	}
	for _, th := range cfg.Monitoring.AlertThresholds {
		out.Monitoring.AlertThresholds = append(out.Monitoring.AlertThresholds, dto.AlertThreshold{
			Metric:    string(th.Metric),
			Condition: string(th.Condition),
			Value:     th.Value,
			Severity:  string(th.Severity),
		})
	}
	for _, c := range cfg.Monitoring.AutoStopConditions {
		out.Monitoring.AutoStopConditions = append(out.Monitoring.AutoStopConditions, dto.AutoStopCondition{
			Type:      string(c.Type),
			Threshold: c.Threshold,
			Action:    string(c.Action),
		})
	}
	if cfg.Result != nil {
		res := toResultOutput(*cfg.Result)
		out.Result = &res
	}
	return out
}

func toResultOutput(r domain.Result) dto.ResultOutput {
	return dto.ResultOutput{
		ExperimentID: r.ExperimentID,
		Reason:       r.Reason,
		StoppedAt:    r.StoppedAt,
		Results:      toResultsOutput(r.Results),
		Report:       r.Report,
	}
}

func toResultsOutput(results []domain.StatisticalResult) []dto.StatisticalResult {
	out := make([]dto.StatisticalResult, 0, len(results))
	for _, r := range results {
		res := dto.StatisticalResult{
			Metric:     string(r.Metric),
			Winner:     r.Winner,
			PValue:     r.PValue,
			Confidence: r.Confidence,
			EffectSize: r.EffectSize,
			TStatistic: r.TStatistic,
			Recommendation: dto.Recommendation{
				Action:     string(r.Recommendation.Action),
				Reason:     r.Recommendation.Reason,
				ExtendDays: r.Recommendation.ExtendDays,
			},
		}
		for _, v := range r.Variants {
			res.Variants = append(res.Variants, dto.VariantStats{
				VariantID:  v.VariantID,
				Mean:       v.Mean,
				StdDev:     v.StdDev,
				SampleSize: v.SampleSize,
				CILow:      v.CILow,
				CIHigh:     v.CIHigh,
			})
		}
		out = append(out, res)
	}
	return out
}

func toAlertOutput(a domain.Alert) dto.Alert {
	return dto.Alert{
		ExperimentID: a.ExperimentID,
		Kind:         a.Kind,
		Metric:       string(a.Metric),
		VariantID:    a.VariantID,
		Value:        a.Value,
		Threshold:    a.Threshold,
		Severity:     string(a.Severity),
		Message:      a.Message,
		RaisedAt:     a.RaisedAt,
	}
}
