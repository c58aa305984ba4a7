package gameparams

import "sort"

// Patch is a field-level overlay; nil fields are left untouched.
type Patch struct {
	ProblemCount        *int     `json:"problem_count,omitempty" yaml:"problem_count,omitempty"`
	TimeLimitMS         *int     `json:"time_limit_ms,omitempty" yaml:"time_limit_ms,omitempty"`
	HintAvailability    *float64 `json:"hint_availability,omitempty" yaml:"hint_availability,omitempty"`
	RetryLimit          *int     `json:"retry_limit,omitempty" yaml:"retry_limit,omitempty"`
	CorrectAnswerPoints *float64 `json:"correct_answer_points,omitempty" yaml:"correct_answer_points,omitempty"`
	TimeBonusPoints     *float64 `json:"time_bonus_points,omitempty" yaml:"time_bonus_points,omitempty"`
	HintPenalty         *float64 `json:"hint_penalty,omitempty" yaml:"hint_penalty,omitempty"`
	StreakMultiplier    *float64 `json:"streak_multiplier,omitempty" yaml:"streak_multiplier,omitempty"`
	VocabularyLevel     *string  `json:"vocabulary_level,omitempty" yaml:"vocabulary_level,omitempty"`
	GrammarComplexity   *string  `json:"grammar_complexity,omitempty" yaml:"grammar_complexity,omitempty"`
	ConceptDensity      *float64 `json:"concept_density,omitempty" yaml:"concept_density,omitempty"`
	DifficultyRamp      *float64 `json:"difficulty_ramp,omitempty" yaml:"difficulty_ramp,omitempty"`
	MaxAdjustmentStep   *float64 `json:"max_adjustment_step,omitempty" yaml:"max_adjustment_step,omitempty"`
}

func (p Patch) IsZero() bool {
	return len(p.Fields()) == 0
}

// Merge returns p with every field set in other taking precedence.
func (p Patch) Merge(other Patch) Patch {
	out := p
	if other.ProblemCount != nil {
		out.ProblemCount = other.ProblemCount
	}
	if other.TimeLimitMS != nil {
		out.TimeLimitMS = other.TimeLimitMS
	}
	if other.HintAvailability != nil {
		out.HintAvailability = other.HintAvailability
	}
	if other.RetryLimit != nil {
		out.RetryLimit = other.RetryLimit
	}
	if other.CorrectAnswerPoints != nil {
		out.CorrectAnswerPoints = other.CorrectAnswerPoints
	}
	if other.TimeBonusPoints != nil {
		out.TimeBonusPoints = other.TimeBonusPoints
	}
	if other.HintPenalty != nil {
		out.HintPenalty = other.HintPenalty
	}
	if other.StreakMultiplier != nil {
		out.StreakMultiplier = other.StreakMultiplier
	}
	if other.VocabularyLevel != nil {
		out.VocabularyLevel = other.VocabularyLevel
	}
	if other.GrammarComplexity != nil {
		out.GrammarComplexity = other.GrammarComplexity
	}
	if other.ConceptDensity != nil {
		out.ConceptDensity = other.ConceptDensity
	}
	if other.DifficultyRamp != nil {
		out.DifficultyRamp = other.DifficultyRamp
	}
	if other.MaxAdjustmentStep != nil {
		out.MaxAdjustmentStep = other.MaxAdjustmentStep
	}
	return out
}

// Fields lists the names of the set fields, sorted.
func (p Patch) Fields() []string {
	set := map[string]bool{
		"problem_count":         p.ProblemCount != nil,
		"time_limit_ms":         p.TimeLimitMS != nil,
		"hint_availability":     p.HintAvailability != nil,
		"retry_limit":           p.RetryLimit != nil,
		"correct_answer_points": p.CorrectAnswerPoints != nil,
		"time_bonus_points":     p.TimeBonusPoints != nil,
		"hint_penalty":          p.HintPenalty != nil,
		"streak_multiplier":     p.StreakMultiplier != nil,
		"vocabulary_level":      p.VocabularyLevel != nil,
		"grammar_complexity":    p.GrammarComplexity != nil,
		"concept_density":       p.ConceptDensity != nil,
		"difficulty_ramp":       p.DifficultyRamp != nil,
		"max_adjustment_step":   p.MaxAdjustmentStep != nil,
	}
	out := make([]string, 0, len(set))
	for name, ok := range set {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }
func String(v string) *string  { return &v }
