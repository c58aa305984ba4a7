package domain_test

import (
	"errors"
	"testing"

	"gametune/internal/modules/difficulty/domain"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
)

func game() domain.GameConfig {
	return domain.GameConfig{
		ID:   "word-match",
		Base: gameparams.GameParameters{ProblemCount: 10, TimeLimitMS: 30000, HintAvailability: 50, ConceptDensity: 2, Scoring: gameparams.Scoring{CorrectAnswerPoints: 10}, Adaptive: gameparams.Adaptive{DifficultyRamp: 1}},
		LevelModifiers: []domain.LevelModifier{
			{MinLevel: 1},
			{MinLevel: 10, Multipliers: domain.Multipliers{ProblemCount: 1.5, TimeLimit: 0.8}, RecommendedSettings: gameparams.Patch{VocabularyLevel: gameparams.String("advanced")}},
			{MinLevel: 5, Multipliers: domain.Multipliers{ProblemCount: 1.2, CorrectAnswerPoints: 1.5, ConceptDensity: 1.25, DifficultyRamp: 2}},
		},
	}
}

func TestResolvePicksGreatestLevelNotAbove(t *testing.T) {
	t.Parallel()
	cfg := game()
	if got := cfg.Resolve(3); got.ProblemCount != 10 || got.TimeLimitMS != 30000 {
		t.Fatalf("level 3 should use the level 1 modifier, got %+v", got)
	}
	got := cfg.Resolve(7)
	if got.ProblemCount != 12 || got.Scoring.CorrectAnswerPoints != 15 || got.ConceptDensity != 2.5 || got.Adaptive.DifficultyRamp != 2 {
		t.Fatalf("unexpected level 7 params %+v", got)
	}
	got = cfg.Resolve(12)
	if got.ProblemCount != 15 || got.TimeLimitMS != 24000 || got.Content.VocabularyLevel != "advanced" {
		t.Fatalf("unexpected level 12 params %+v", got)
	}
	if got := cfg.Resolve(0); got != cfg.Base {
		t.Fatalf("below every modifier the base must be returned unchanged")
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	t.Parallel()
	cfg := domain.GameConfig{Adaptive: domain.AdaptiveSettings{MinSuccessRate: 95, MaxSuccessRate: 80}}
	err := cfg.Validate()
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Violations) != 4 {
		t.Fatalf("expected four violations, got %+v", verr.Violations)
	}
}

func TestValidatePatch(t *testing.T) {
	t.Parallel()
	if err := domain.ValidatePatch(gameparams.Patch{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("empty patch must be rejected, got %v", err)
	}
	err := domain.ValidatePatch(gameparams.Patch{HintAvailability: gameparams.Float(120), TimeLimitMS: gameparams.Int(10)})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) || len(verr.Violations) != 2 {
		t.Fatalf("expected two violations, got %v", err)
	}
	if err := domain.ValidatePatch(gameparams.Patch{ProblemCount: gameparams.Int(4)}); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}
}
