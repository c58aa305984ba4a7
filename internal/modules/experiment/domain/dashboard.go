package domain

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	trendWindow    = 10
	trendThreshold = 0.05
	poorBelow      = 50
	fairBelow      = 200
	// AlertHistory is how many alerts are kept per experiment.
	AlertHistory = 50
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

type DataQuality string

const (
	QualityPoor DataQuality = "poor"
	QualityFair DataQuality = "fair"
	QualityGood DataQuality = "good"
)

func QualityOf(samples int) DataQuality {
	switch {
	case samples < poorBelow:
		return QualityPoor
	case samples < fairBelow:
		return QualityFair
	default:
		return QualityGood
	}
}

// TrendOf compares the mean of the last ten values with the ten before.
// Fewer than two full windows is always stable.
func TrendOf(values []float64) Trend {
	if len(values) < 2*trendWindow {
		return TrendStable
	}
	recent := values[len(values)-trendWindow:]
	prior := values[len(values)-2*trendWindow : len(values)-trendWindow]
	before := stat.Mean(prior, nil)
	after := stat.Mean(recent, nil)
	if before == 0 {
		return TrendStable
	}
	change := (after - before) / before
	switch {
	case change > trendThreshold:
		return TrendImproving
	case change < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// RollingMean is the mean of the last ten values.
func RollingMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) > trendWindow {
		values = values[len(values)-trendWindow:]
	}
	return stat.Mean(values, nil)
}

type VariantSummary struct {
	VariantID      string
	Name           string
	Weight         float64
	Participants   int
	Samples        int
	Accuracy       float64
	RecentAccuracy float64
	Completion     float64
	Engagement     float64
	Trend          Trend
}

type Alert struct {
	ExperimentID string    `json:"experiment_id"`
	Kind         string    `json:"kind"`
	Metric       Metric    `json:"metric,omitempty"`
	VariantID    string    `json:"variant_id,omitempty"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	RaisedAt     time.Time `json:"raised_at"`
}

type Dashboard struct {
	Experiment   Config
	Variants     []VariantSummary
	Results      []StatisticalResult
	Significant  bool
	DataQuality  DataQuality
	TotalSamples int
	Alerts       []Alert
	GeneratedAt  time.Time
}

// BuildDashboard summarizes an experiment. samples must be in recording order.
func BuildDashboard(cfg Config, samples []MetricSample, alerts []Alert, now time.Time) Dashboard {
	participants := Participants(samples)
	accuracy := ByVariant(samples, MetricAccuracy)
	completion := ByVariant(samples, MetricCompletionRate)
	engagement := ByVariant(samples, MetricEngagementScore)

	d := Dashboard{
		Experiment:   cfg,
		Results:      AnalyzeAll(cfg.Variants, samples),
		DataQuality:  QualityOf(len(samples)),
		TotalSamples: len(samples),
		Alerts:       alerts,
		GeneratedAt:  now,
	}
	for _, v := range cfg.Variants {
		values := accuracy[v.ID]
		d.Variants = append(d.Variants, VariantSummary{
			VariantID:      v.ID,
			Name:           v.Name,
			Weight:         v.Weight,
			Participants:   participants[v.ID],
			Samples:        len(values),
			Accuracy:       mean(values),
			RecentAccuracy: RollingMean(values),
			Completion:     mean(completion[v.ID]),
			Engagement:     mean(engagement[v.ID]),
			Trend:          TrendOf(values),
		})
	}
	for _, r := range d.Results {
		if r.Significant() {
			d.Significant = true
		}
	}
	return d
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
