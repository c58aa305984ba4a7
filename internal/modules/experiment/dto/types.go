package dto

import (
	"time"

	"gametune/internal/platform/gameparams"
)

type Variant struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Weight    float64          `json:"weight" yaml:"weight"`
	Overrides gameparams.Patch `json:"overrides" yaml:"overrides"`
}

type AlertThreshold struct {
	Metric    string  `json:"metric" yaml:"metric"`
	Condition string  `json:"condition" yaml:"condition"`
	Value     float64 `json:"value" yaml:"value"`
	Severity  string  `json:"severity" yaml:"severity"`
}

type AutoStopCondition struct {
	Type      string  `json:"type" yaml:"type"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Action    string  `json:"action" yaml:"action"`
}

type MonitoringConfig struct {
	Interval           time.Duration       `json:"interval" yaml:"interval"`
	AlertThresholds    []AlertThreshold    `json:"alert_thresholds" yaml:"alert_thresholds"`
	AutoStopConditions []AutoStopCondition `json:"auto_stop_conditions" yaml:"auto_stop_conditions"`
}

type CreateExperimentInput struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	StartAt     time.Time `json:"start_at" yaml:"start_at"`
	EndAt       time.Time `json:"end_at" yaml:"end_at"`
	TargetGames []string  `json:"target_games" yaml:"target_games"`
	Variants    []Variant `json:"variants" yaml:"variants"`
	SampleSize  int       `json:"sample_size" yaml:"sample_size"`
	// Monitoring falls back to the default thresholds when nil.
	Monitoring *MonitoringConfig `json:"monitoring,omitempty" yaml:"monitoring,omitempty"`
}

type ExperimentOutput struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	StartAt          time.Time        `json:"start_at"`
	EndAt            time.Time        `json:"end_at"`
	TargetGames      []string         `json:"target_games"`
	Variants         []Variant        `json:"variants"`
	SampleSize       int              `json:"sample_size"`
	ParticipantCount int              `json:"participant_count"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"created_at"`
	Monitoring       MonitoringConfig `json:"monitoring"`
	Result           *ResultOutput    `json:"result,omitempty"`
}

type AssignmentOutput struct {
	ExperimentID string  `json:"experiment_id"`
	Variant      Variant `json:"variant"`
}

type RecordMetricInput struct {
	ExperimentID      string
	VariantID         string
	PlayerID          string
	GameID            string
	TotalProblems     int
	ProblemsAttempted int
	HintsUsed         int
	Retries           int
	Accuracy          float64
	Score             float64
}

type RecordMetricOutput struct {
	// FirstParticipation is set when this is the first sample of the player
	// and game in the experiment.
	FirstParticipation bool    `json:"first_participation"`
	CompletionRate     float64 `json:"completion_rate"`
	EngagementScore    float64 `json:"engagement_score"`
}

type Recommendation struct {
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	ExtendDays int    `json:"extend_days,omitempty"`
}

type VariantStats struct {
	VariantID  string  `json:"variant_id"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	SampleSize int     `json:"sample_size"`
	CILow      float64 `json:"ci_low"`
	CIHigh     float64 `json:"ci_high"`
}

type StatisticalResult struct {
	Metric         string         `json:"metric"`
	Variants       []VariantStats `json:"variants"`
	Winner         string         `json:"winner,omitempty"`
	PValue         float64        `json:"p_value"`
	Confidence     float64        `json:"confidence"`
	EffectSize     float64        `json:"effect_size"`
	TStatistic     float64        `json:"t_statistic"`
	Recommendation Recommendation `json:"recommendation"`
}

type ResultOutput struct {
	ExperimentID string              `json:"experiment_id"`
	Reason       string              `json:"reason"`
	StoppedAt    time.Time           `json:"stopped_at"`
	Results      []StatisticalResult `json:"results"`
	Report       string              `json:"report"`
}

type Alert struct {
	ExperimentID string    `json:"experiment_id"`
	Kind         string    `json:"kind"`
	Metric       string    `json:"metric,omitempty"`
	VariantID    string    `json:"variant_id,omitempty"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	RaisedAt     time.Time `json:"raised_at"`
}

type VariantSummary struct {
	VariantID      string  `json:"variant_id"`
	Name           string  `json:"name"`
	Weight         float64 `json:"weight"`
	Participants   int     `json:"participants"`
	Samples        int     `json:"samples"`
	Accuracy       float64 `json:"accuracy"`
	RecentAccuracy float64 `json:"recent_accuracy"`
	Completion     float64 `json:"completion"`
	Engagement     float64 `json:"engagement"`
	Trend          string  `json:"trend"`
}

type DashboardOutput struct {
	Experiment   ExperimentOutput    `json:"experiment"`
	Variants     []VariantSummary    `json:"variants"`
	Results      []StatisticalResult `json:"results"`
	Significant  bool                `json:"significant"`
	DataQuality  string              `json:"data_quality"`
	TotalSamples int                 `json:"total_samples"`
	Alerts       []Alert             `json:"alerts"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

type PruneReport struct {
	SamplesRemoved int `json:"samples_removed"`
	AlertsRemoved  int `json:"alerts_removed"`
}
