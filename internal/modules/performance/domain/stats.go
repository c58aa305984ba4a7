package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	velocityWindow      = 5
	strongPassRate      = 0.8
	improvementPassRate = 0.4
)

type PerformanceStats struct {
	TotalSessions    int      `json:"total_sessions"`
	AverageAccuracy  float64  `json:"average_accuracy"`
	AverageScore     float64  `json:"average_score"`
	LearningVelocity float64  `json:"learning_velocity"`
	StrongAreas      []string `json:"strong_areas,omitempty"`
	ImprovementAreas []string `json:"improvement_areas,omitempty"`
	ConsistencyScore float64  `json:"consistency_score"`
}

// ComputeStats derives stats from the retained sessions, oldest first.
func ComputeStats(sessions []GameSession) PerformanceStats {
	out := PerformanceStats{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return out
	}
	accuracy := make([]float64, len(sessions))
	score := make([]float64, len(sessions))
	for i, s := range sessions {
		accuracy[i] = s.Result.Accuracy
		score[i] = s.Result.Score
	}
	out.AverageAccuracy = stat.Mean(accuracy, nil)
	out.AverageScore = stat.Mean(score, nil)

	window := min(velocityWindow, len(accuracy))
	out.LearningVelocity = stat.Mean(accuracy[len(accuracy)-window:], nil) - stat.Mean(accuracy[:window], nil)

	out.ConsistencyScore = math.Max(0, 100-stat.PopStdDev(accuracy, nil))
	out.StrongAreas, out.ImprovementAreas = conceptAreas(sessions)
	return out
}

// conceptAreas rates each concept by how often it was mastered rather than
// struggled with across sessions.
func conceptAreas(sessions []GameSession) (strong, improvement []string) {
	type tally struct{ passed, seen int }
	counts := map[string]*tally{}
	bump := func(concept string, passed bool) {
		t, ok := counts[concept]
		if !ok {
			t = &tally{}
			counts[concept] = t
		}
		t.seen++
		if passed {
			t.passed++
		}
	}
	for _, s := range sessions {
		for _, c := range s.Result.MasteredConcepts {
			bump(c, true)
		}
		for _, c := range s.Result.StruggledConcepts {
			bump(c, false)
		}
	}
	for concept, t := range counts {
		rate := float64(t.passed) / float64(t.seen)
		switch {
		case rate >= strongPassRate:
			strong = append(strong, concept)
		case rate <= improvementPassRate:
			improvement = append(improvement, concept)
		}
	}
	sort.Strings(strong)
	sort.Strings(improvement)
	return strong, improvement
}
