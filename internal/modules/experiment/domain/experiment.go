package domain

import (
	"math"
	"time"

	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
)

const (
	MinSampleSize   = 100
	MinVariants     = 2
	weightTotal     = 100.0
	weightTolerance = 0.1
)

type Variant struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Weight    float64          `json:"weight" yaml:"weight"`
	Overrides gameparams.Patch `json:"overrides" yaml:"overrides"`
}

type Condition string

const (
	ConditionBelow Condition = "below"
	ConditionAbove Condition = "above"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type AlertThreshold struct {
	Metric    Metric    `json:"metric" yaml:"metric"`
	Condition Condition `json:"condition" yaml:"condition"`
	Value     float64   `json:"value" yaml:"value"`
	Severity  Severity  `json:"severity" yaml:"severity"`
}

type AutoStopType string

const (
	StopSignificanceReached AutoStopType = "significance_reached"
	StopSampleSizeReached   AutoStopType = "sample_size_reached"
	StopAdverseEffect       AutoStopType = "adverse_effect"
)

type StopAction string

const (
	ActionNotify   StopAction = "notify"
	ActionStopTest StopAction = "stop_test"
)

type AutoStopCondition struct {
	Type      AutoStopType `json:"type" yaml:"type"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
	Action    StopAction   `json:"action" yaml:"action"`
}

type MonitoringConfig struct {
	Interval           time.Duration       `json:"interval" yaml:"interval"`
	AlertThresholds    []AlertThreshold    `json:"alert_thresholds" yaml:"alert_thresholds"`
	AutoStopConditions []AutoStopCondition `json:"auto_stop_conditions" yaml:"auto_stop_conditions"`
}

// DefaultMonitoring is used when an experiment names no thresholds.
func DefaultMonitoring() MonitoringConfig {
	return MonitoringConfig{
		AlertThresholds: []AlertThreshold{
			{Metric: MetricCompletionRate, Condition: ConditionBelow, Value: 0.3, Severity: SeverityWarning},
			{Metric: MetricAccuracy, Condition: ConditionBelow, Value: 40, Severity: SeverityCritical},
		},
		AutoStopConditions: []AutoStopCondition{
			{Type: StopSignificanceReached, Threshold: 0.95, Action: ActionNotify},
			{Type: StopSampleSizeReached, Action: ActionNotify},
			{Type: StopAdverseEffect, Threshold: 0.2, Action: ActionStopTest},
		},
	}
}

type Config struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Description      string           `json:"description" yaml:"description"`
	StartAt          time.Time        `json:"start_at" yaml:"start_at"`
	EndAt            time.Time        `json:"end_at" yaml:"end_at"`
	TargetGames      []string         `json:"target_games" yaml:"target_games"`
	Variants         []Variant        `json:"variants" yaml:"variants"`
	SampleSize       int              `json:"sample_size" yaml:"sample_size"`
	ParticipantCount int              `json:"participant_count" yaml:"participant_count"`
	Active           bool             `json:"active" yaml:"active"`
	CreatedAt        time.Time        `json:"created_at" yaml:"created_at"`
	Monitoring       MonitoringConfig `json:"monitoring" yaml:"monitoring"`
	Result           *Result          `json:"result,omitempty" yaml:"result,omitempty"`
}

// Validate reports every violated rule at once.
func (c Config) Validate() error {
	v := apperrors.NewValidator("experiment")
	v.Check(c.Name != "", "name", "required", "name is required")
	v.Check(len(c.Variants) >= MinVariants, "variants", "min_variants", "at least %d variants are required, got %d", MinVariants, len(c.Variants))
	v.Check(len(c.TargetGames) > 0, "target_games", "required", "at least one target game is required")
	v.Check(c.SampleSize >= MinSampleSize, "sample_size", "min_sample_size", "sample size must be at least %d, got %d", MinSampleSize, c.SampleSize)
	v.Check(c.EndAt.After(c.StartAt), "end_at", "window", "end must be after start")

	total := 0.0
	seen := map[string]bool{}
	for i, variant := range c.Variants {
		v.Check(variant.ID != "", "variants.id", "variant_id", "variant %d has no id", i)
		v.Check(!seen[variant.ID] || variant.ID == "", "variants.id", "variant_id_unique", "variant id %q is used twice", variant.ID)
		seen[variant.ID] = true
		v.Check(variant.Weight >= 0 && variant.Weight <= 100, "variants.weight", "weight_range", "variant %q weight %v is outside 0-100", variant.ID, variant.Weight)
		total += variant.Weight
	}
	if len(c.Variants) > 0 {
		v.Check(math.Abs(total-weightTotal) <= weightTolerance, "variants.weight", "weights_sum", "variant weights must sum to 100, got %v", total)
	}
	for _, g := range c.TargetGames {
		v.Check(g != "", "target_games", "required", "target game ids must not be empty")
	}
	for _, th := range c.Monitoring.AlertThresholds {
		v.Check(th.Metric.Valid(), "monitoring.alert_thresholds", "metric", "unknown metric %q", th.Metric)
		v.Check(th.Condition == ConditionBelow || th.Condition == ConditionAbove, "monitoring.alert_thresholds", "condition", "unknown condition %q", th.Condition)
	}
	for _, cond := range c.Monitoring.AutoStopConditions {
		switch cond.Type {
		case StopSignificanceReached, StopSampleSizeReached, StopAdverseEffect:
		default:
			v.Check(false, "monitoring.auto_stop_conditions", "type", "unknown auto-stop type %q", cond.Type)
		}
	}
	v.Check(c.Monitoring.Interval >= 0, "monitoring.interval", "non_negative", "monitoring interval must not be negative")
	return v.Err()
}

// Running reports whether the experiment accepts players at now.
func (c Config) Running(now time.Time) bool {
	return c.Active && !now.Before(c.StartAt) && now.Before(c.EndAt)
}

func (c Config) Targets(gameID string) bool {
	for _, g := range c.TargetGames {
		if g == gameID {
			return true
		}
	}
	return false
}

func (c Config) Variant(id string) (Variant, bool) {
	for _, v := range c.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Result is stored when an experiment stops.
type Result struct {
	ExperimentID string              `json:"experiment_id"`
	Reason       string              `json:"reason"`
	StoppedAt    time.Time           `json:"stopped_at"`
	Results      []StatisticalResult `json:"results"`
	Report       string              `json:"report"`
}

// Clone copies the slices of c so stores can hand out independent values.
// Variant override patches are shared; they are never mutated in place.
func (c Config) Clone() Config {
	out := c
	out.TargetGames = append([]string(nil), c.TargetGames...)
	out.Variants = append([]Variant(nil), c.Variants...)
	out.Monitoring.AlertThresholds = append([]AlertThreshold(nil), c.Monitoring.AlertThresholds...)
	out.Monitoring.AutoStopConditions = append([]AutoStopCondition(nil), c.Monitoring.AutoStopConditions...)
	if c.Result != nil {
		res := *c.Result
		res.Results = append([]StatisticalResult(nil), c.Result.Results...)
		out.Result = &res
	}
	return out
}
