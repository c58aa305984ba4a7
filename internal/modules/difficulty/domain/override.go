package domain

import (
	"time"

	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
)

// DefaultOverrideTTL applies when a manual override names no TTL.
const DefaultOverrideTTL = 24 * time.Hour

// Override is a per-player manual patch layered over adaptive parameters.
// It never changes the game's base configuration.
type Override struct {
	GameID    string           `json:"game_id"`
	PlayerID  string           `json:"player_id"`
	Patch     gameparams.Patch `json:"patch"`
	Note      string           `json:"note,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func (o Override) Active(now time.Time) bool {
	return now.Before(o.ExpiresAt)
}

type Feedback string

const (
	FeedbackTooHard Feedback = "too_hard"
	FeedbackTooEasy Feedback = "too_easy"
)

func (f Feedback) Valid() bool {
	return f == FeedbackTooHard || f == FeedbackTooEasy
}

// ValidatePatch reports every out-of-range field of an override patch.
func ValidatePatch(p gameparams.Patch) error {
	v := apperrors.NewValidator("parameter patch")
	v.Check(!p.IsZero(), "patch", "required", "patch sets no fields")
	if p.ProblemCount != nil {
		v.Check(*p.ProblemCount >= 1, "problem_count", "min", "problem count must be at least 1")
	}
	if p.TimeLimitMS != nil {
		v.Check(*p.TimeLimitMS >= gameparams.MinTimeLimitMS, "time_limit_ms", "min", "time limit must be at least %d ms", gameparams.MinTimeLimitMS)
	}
	if p.HintAvailability != nil {
		v.Check(*p.HintAvailability >= 0 && *p.HintAvailability <= gameparams.MaxHint, "hint_availability", "range", "hint availability must be within 0-100")
	}
	if p.RetryLimit != nil {
		v.Check(*p.RetryLimit >= 0, "retry_limit", "non_negative", "retry limit must not be negative")
	}
	if p.ConceptDensity != nil {
		v.Check(*p.ConceptDensity >= 0 && *p.ConceptDensity <= gameparams.MaxConceptDensity, "concept_density", "range", "concept density must be within 0-5")
	}
	if p.MaxAdjustmentStep != nil {
		v.Check(*p.MaxAdjustmentStep >= 0 && *p.MaxAdjustmentStep <= 1, "max_adjustment_step", "range", "max adjustment step must be a fraction within 0-1")
	}
	return v.Err()
}
