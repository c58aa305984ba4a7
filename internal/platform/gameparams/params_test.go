package gameparams_test

import (
	"reflect"
	"testing"

	"gametune/internal/platform/gameparams"
)

func base() gameparams.GameParameters {
	return gameparams.GameParameters{
		ProblemCount:     10,
		TimeLimitMS:      30000,
		HintAvailability: 50,
		RetryLimit:       2,
		Scoring:          gameparams.Scoring{CorrectAnswerPoints: 10, TimeBonusPoints: 5, HintPenalty: 2, StreakMultiplier: 1.5},
		Content:          gameparams.Content{VocabularyLevel: "beginner", GrammarComplexity: "simple"},
		ConceptDensity:   2,
		Adaptive:         gameparams.Adaptive{DifficultyRamp: 1, MaxAdjustmentStep: 0.15},
	}
}

func TestApplyOnlyTouchesSetFields(t *testing.T) {
	t.Parallel()
	in := base()
	out := in.Apply(gameparams.Patch{HintAvailability: gameparams.Float(80), VocabularyLevel: gameparams.String("advanced")})
	if out.HintAvailability != 80 || out.Content.VocabularyLevel != "advanced" {
		t.Fatalf("patch not applied: %+v", out)
	}
	if out.ProblemCount != in.ProblemCount || out.Content.GrammarComplexity != in.Content.GrammarComplexity {
		t.Fatalf("unset fields changed: %+v", out)
	}
	if in.HintAvailability != 50 {
		t.Fatalf("input mutated")
	}
}

func TestShiftClamps(t *testing.T) {
	t.Parallel()
	out := base().Shift(gameparams.Delta{TimeLimitMS: -40000, HintAvailability: 70, ProblemCount: -20, ConceptDensity: 9})
	if out.TimeLimitMS != gameparams.MinTimeLimitMS {
		t.Fatalf("time limit not clamped: %d", out.TimeLimitMS)
	}
	if out.HintAvailability != 100 || out.ProblemCount != 3 || out.ConceptDensity != 5 {
		t.Fatalf("unexpected clamp result %+v", out)
	}
	low := base().Shift(gameparams.Delta{HintAvailability: -90, ConceptDensity: -3})
	if low.HintAvailability != 0 || low.ConceptDensity != 0 {
		t.Fatalf("unexpected floor result %+v", low)
	}
}

func TestBuilderOrderLastWins(t *testing.T) {
	t.Parallel()
	out := gameparams.From(base()).
		Shift(gameparams.Delta{ProblemCount: 1}).
		Apply(gameparams.Patch{ProblemCount: gameparams.Int(4)}).
		Apply(gameparams.Patch{ProblemCount: gameparams.Int(7)}).
		Build()
	if out.ProblemCount != 7 {
		t.Fatalf("expected last overlay to win, got %d", out.ProblemCount)
	}
}

func TestPatchMergeAndFields(t *testing.T) {
	t.Parallel()
	merged := gameparams.Patch{ProblemCount: gameparams.Int(5), RetryLimit: gameparams.Int(1)}.
		Merge(gameparams.Patch{ProblemCount: gameparams.Int(8)})
	if *merged.ProblemCount != 8 || *merged.RetryLimit != 1 {
		t.Fatalf("unexpected merge %+v", merged)
	}
	if got := merged.Fields(); !reflect.DeepEqual(got, []string{"problem_count", "retry_limit"}) {
		t.Fatalf("unexpected fields %v", got)
	}
	if !(gameparams.Patch{}).IsZero() {
		t.Fatalf("empty patch must be zero")
	}
}

func TestDiffAndDeltaAdd(t *testing.T) {
	t.Parallel()
	from := base()
	to := from.Shift(gameparams.Delta{TimeLimitMS: 3000, ProblemCount: -1})
	d := from.Diff(to)
	if d.TimeLimitMS != 3000 || d.ProblemCount != -1 {
		t.Fatalf("unexpected diff %+v", d)
	}
	sum := d.Add(gameparams.Delta{ProblemCount: 1})
	if sum.ProblemCount != 0 || sum.IsZero() {
		t.Fatalf("unexpected sum %+v", sum)
	}
}
