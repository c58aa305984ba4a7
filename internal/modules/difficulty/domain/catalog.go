package domain

import (
	"math"
	"sort"

	"gametune/internal/platform/gameparams"
)

// Multipliers scale the base parameters for a level band. Zero means 1.
type Multipliers struct {
	ProblemCount        float64 `yaml:"problem_count"`
	TimeLimit           float64 `yaml:"time_limit"`
	CorrectAnswerPoints float64 `yaml:"correct_answer_points"`
	ConceptDensity      float64 `yaml:"concept_density"`
	DifficultyRamp      float64 `yaml:"difficulty_ramp"`
}

type LevelModifier struct {
	MinLevel            int              `yaml:"min_level"`
	Multipliers         Multipliers      `yaml:"multipliers"`
	RecommendedSettings gameparams.Patch `yaml:"recommended_settings"`
}

type GameConfig struct {
	ID             string                    `yaml:"id"`
	Name           string                    `yaml:"name"`
	Base           gameparams.GameParameters `yaml:"base"`
	LevelModifiers []LevelModifier           `yaml:"level_modifiers"`
	Adaptive       AdaptiveSettings          `yaml:"adaptive"`
}

// Modifier returns the level modifier with the greatest MinLevel not above
// level.
func (c GameConfig) Modifier(level int) (LevelModifier, bool) {
	mods := append([]LevelModifier(nil), c.LevelModifiers...)
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].MinLevel > mods[j].MinLevel })
	for _, m := range mods {
		if m.MinLevel <= level {
			return m, true
		}
	}
	return LevelModifier{}, false
}

// Resolve derives the base parameters for a player level.
func (c GameConfig) Resolve(level int) gameparams.GameParameters {
	params := c.Base
	mod, ok := c.Modifier(level)
	if !ok {
		return params
	}
	m := mod.Multipliers
	params.ProblemCount = int(math.Round(float64(params.ProblemCount) * factor(m.ProblemCount)))
	params.TimeLimitMS = int(math.Round(float64(params.TimeLimitMS) * factor(m.TimeLimit)))
	params.Scoring.CorrectAnswerPoints *= factor(m.CorrectAnswerPoints)
	params.ConceptDensity *= factor(m.ConceptDensity)
	params.Adaptive.DifficultyRamp *= factor(m.DifficultyRamp)
	return params.Apply(mod.RecommendedSettings)
}

func factor(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
