package domain

import (
	"math"
	"time"
)

type Metric string

const (
	MetricAccuracy        Metric = "accuracy"
	MetricCompletionRate  Metric = "completionRate"
	MetricEngagementScore Metric = "engagementScore"
	MetricScore           Metric = "score"
)

// Metrics lists the metrics analyzed for every experiment, in report order.
var Metrics = []Metric{MetricAccuracy, MetricCompletionRate, MetricEngagementScore, MetricScore}

func (m Metric) Valid() bool {
	for _, known := range Metrics {
		if m == known {
			return true
		}
	}
	return false
}

type MetricSample struct {
	ExperimentID    string    `json:"experiment_id"`
	VariantID       string    `json:"variant_id"`
	PlayerID        string    `json:"player_id"`
	GameID          string    `json:"game_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	Accuracy        float64   `json:"accuracy"`
	CompletionRate  float64   `json:"completion_rate"`
	EngagementScore float64   `json:"engagement_score"`
	Score           float64   `json:"score"`
}

func (s MetricSample) Value(m Metric) float64 {
	switch m {
	case MetricAccuracy:
		return s.Accuracy
	case MetricCompletionRate:
		return s.CompletionRate
	case MetricEngagementScore:
		return s.EngagementScore
	case MetricScore:
		return s.Score
	default:
		return math.NaN()
	}
}

// SessionOutcome is the slice of a finished session the experiment needs.
type SessionOutcome struct {
	TotalProblems     int
	ProblemsAttempted int
	HintsUsed         int
	Retries           int
	Accuracy          float64
	Score             float64
}

// NewSample derives the experiment metrics from a session outcome.
// Completion counts attempted problems; a session that reports none
// attempted is treated as complete. Engagement weighs completion at 60
// points and restraint with hints and retries at 20 points each.
func NewSample(experimentID, variantID, playerID, gameID string, at time.Time, o SessionOutcome) MetricSample {
	completion := 1.0
	if o.TotalProblems > 0 && o.ProblemsAttempted > 0 {
		completion = clamp01(float64(o.ProblemsAttempted) / float64(o.TotalProblems))
	}
	hintRatio, retryRatio := 0.0, 0.0
	if o.TotalProblems > 0 {
		hintRatio = clamp01(float64(o.HintsUsed) / float64(o.TotalProblems))
		retryRatio = clamp01(float64(o.Retries) / float64(o.TotalProblems))
	}
	engagement := completion*60 + (1-hintRatio)*20 + (1-retryRatio)*20
	return MetricSample{
		ExperimentID:    experimentID,
		VariantID:       variantID,
		PlayerID:        playerID,
		GameID:          gameID,
		RecordedAt:      at,
		Accuracy:        o.Accuracy,
		CompletionRate:  completion,
		EngagementScore: engagement,
		Score:           o.Score,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Participants counts distinct (player, game) pairs per variant.
func Participants(samples []MetricSample) map[string]int {
	type pair struct{ player, game string }
	seen := map[string]map[pair]bool{}
	for _, s := range samples {
		if seen[s.VariantID] == nil {
			seen[s.VariantID] = map[pair]bool{}
		}
		seen[s.VariantID][pair{s.PlayerID, s.GameID}] = true
	}
	out := make(map[string]int, len(seen))
	for variant, players := range seen {
		out[variant] = len(players)
	}
	return out
}

// ByVariant groups metric values per variant, keeping sample order.
func ByVariant(samples []MetricSample, m Metric) map[string][]float64 {
	out := map[string][]float64{}
	for _, s := range samples {
		out[s.VariantID] = append(out[s.VariantID], s.Value(m))
	}
	return out
}
