// Package gameparams holds the parameter set handed to a game at the start
// of a session, and the overlays used to derive it.
package gameparams

import "math"

const (
	MinProblemCount   = 3
	MinTimeLimitMS    = 1000
	MaxHint           = 100.0
	MaxConceptDensity = 5.0
)

type Scoring struct {
	CorrectAnswerPoints float64 `json:"correct_answer_points" yaml:"correct_answer_points"`
	TimeBonusPoints     float64 `json:"time_bonus_points" yaml:"time_bonus_points"`
	HintPenalty         float64 `json:"hint_penalty" yaml:"hint_penalty"`
	StreakMultiplier    float64 `json:"streak_multiplier" yaml:"streak_multiplier"`
}

type Content struct {
	VocabularyLevel   string `json:"vocabulary_level" yaml:"vocabulary_level"`
	GrammarComplexity string `json:"grammar_complexity" yaml:"grammar_complexity"`
}

type Adaptive struct {
	DifficultyRamp float64 `json:"difficulty_ramp" yaml:"difficulty_ramp"`
	// MaxAdjustmentStep caps a single time-limit change, as a fraction.
	MaxAdjustmentStep float64 `json:"max_adjustment_step" yaml:"max_adjustment_step"`
}

// GameParameters is a value: every derivation returns a new copy.
type GameParameters struct {
	ProblemCount     int      `json:"problem_count" yaml:"problem_count"`
	TimeLimitMS      int      `json:"time_limit_ms" yaml:"time_limit_ms"`
	HintAvailability float64  `json:"hint_availability" yaml:"hint_availability"`
	RetryLimit       int      `json:"retry_limit" yaml:"retry_limit"`
	Scoring          Scoring  `json:"scoring" yaml:"scoring"`
	Content          Content  `json:"content" yaml:"content"`
	ConceptDensity   float64  `json:"concept_density" yaml:"concept_density"`
	Adaptive         Adaptive `json:"adaptive" yaml:"adaptive"`
}

// Apply overlays the set fields of p.
func (g GameParameters) Apply(p Patch) GameParameters {
	out := g
	setInt(&out.ProblemCount, p.ProblemCount)
	setInt(&out.TimeLimitMS, p.TimeLimitMS)
	setFloat(&out.HintAvailability, p.HintAvailability)
	setInt(&out.RetryLimit, p.RetryLimit)
	setFloat(&out.Scoring.CorrectAnswerPoints, p.CorrectAnswerPoints)
	setFloat(&out.Scoring.TimeBonusPoints, p.TimeBonusPoints)
	setFloat(&out.Scoring.HintPenalty, p.HintPenalty)
	setFloat(&out.Scoring.StreakMultiplier, p.StreakMultiplier)
	if p.VocabularyLevel != nil {
		out.Content.VocabularyLevel = *p.VocabularyLevel
	}
	if p.GrammarComplexity != nil {
		out.Content.GrammarComplexity = *p.GrammarComplexity
	}
	setFloat(&out.ConceptDensity, p.ConceptDensity)
	setFloat(&out.Adaptive.DifficultyRamp, p.DifficultyRamp)
	setFloat(&out.Adaptive.MaxAdjustmentStep, p.MaxAdjustmentStep)
	return out
}

// Shift adds d and clamps the adjusted fields to their playable range.
func (g GameParameters) Shift(d Delta) GameParameters {
	out := g
	out.TimeLimitMS += d.TimeLimitMS
	out.HintAvailability += d.HintAvailability
	out.ProblemCount += d.ProblemCount
	out.ConceptDensity += d.ConceptDensity
	return out.Clamp()
}

func (g GameParameters) Clamp() GameParameters {
	out := g
	if out.TimeLimitMS < MinTimeLimitMS {
		out.TimeLimitMS = MinTimeLimitMS
	}
	out.HintAvailability = clampFloat(out.HintAvailability, 0, MaxHint)
	if out.ProblemCount < MinProblemCount {
		out.ProblemCount = MinProblemCount
	}
	out.ConceptDensity = clampFloat(out.ConceptDensity, 0, MaxConceptDensity)
	return out
}

// Diff is the Delta that Shift would need to move from g to other, ignoring
// clamping.
func (g GameParameters) Diff(other GameParameters) Delta {
	return Delta{
		TimeLimitMS:      other.TimeLimitMS - g.TimeLimitMS,
		HintAvailability: other.HintAvailability - g.HintAvailability,
		ProblemCount:     other.ProblemCount - g.ProblemCount,
		ConceptDensity:   other.ConceptDensity - g.ConceptDensity,
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
