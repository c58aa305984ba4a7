package domain

import (
	"fmt"

	apperrors "gametune/internal/platform/errors"
)

// Validate checks a catalog entry before it is served.
func (c GameConfig) Validate() error {
	v := apperrors.NewValidator(fmt.Sprintf("game config %q", c.ID))
	v.Check(c.ID != "", "id", "required", "game id is required")
	v.Check(c.Base.ProblemCount > 0, "base.problem_count", "min", "base problem count must be positive")
	v.Check(c.Base.TimeLimitMS > 0, "base.time_limit_ms", "min", "base time limit must be positive")
	v.Check(c.Base.HintAvailability >= 0 && c.Base.HintAvailability <= 100, "base.hint_availability", "range", "base hint availability must be within 0-100")
	seen := map[int]bool{}
	for _, m := range c.LevelModifiers {
		v.Check(!seen[m.MinLevel], "level_modifiers", "unique", "duplicate level modifier for level %d", m.MinLevel)
		seen[m.MinLevel] = true
	}
	s := c.Adaptive.WithDefaults()
	v.Check(s.MinSuccessRate < s.MaxSuccessRate, "adaptive", "range", "min success rate must be below max success rate")
	return v.Err()
}
