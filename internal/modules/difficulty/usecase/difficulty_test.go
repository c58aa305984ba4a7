package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	diffout "gametune/internal/modules/difficulty/adapter/out"
	"gametune/internal/modules/difficulty/dto"
	diffin "gametune/internal/modules/difficulty/port/in"
	"gametune/internal/modules/difficulty/service"
	"gametune/internal/modules/difficulty/usecase"
	perfout "gametune/internal/modules/performance/adapter/out"
	perfdto "gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	perfservice "gametune/internal/modules/performance/service"
	perfusecase "gametune/internal/modules/performance/usecase"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/keylock"
)

const catalogYAML = `
games:
  - id: word-match
    name: Word Match
    base:
      problem_count: 10
      time_limit_ms: 30000
      hint_availability: 50
      concept_density: 2
      adaptive:
        max_adjustment_step: 0.15
    level_modifiers:
      - min_level: 5
        multipliers: {problem_count: 1.2}
`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeID struct{}

func (fakeID) New() string { return "sess" }

type fixture struct {
	clock       *fakeClock
	performance perfin.Usecase
	difficulty  diffin.Usecase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	catalog, err := diffout.ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	perf := perfusecase.NewInteractor(perfservice.NewPerformanceService(clk, fakeID{}, perfout.NewMemoryStore(), keylock.New(time.Second), nil))
	diff := usecase.NewInteractor(service.NewDifficultyService(clk, catalog, diffout.NewMemoryOverrideStore(), nil), perf, nil)
	return fixture{clock: clk, performance: perf, difficulty: diff}
}

func (f fixture) play(t *testing.T, accuracy float64) {
	t.Helper()
	f.clock.Advance(time.Minute)
	if _, err := f.performance.RecordSession(context.Background(), perfdto.RecordSessionInput{
		GameID: "word-match", PlayerID: "p1", Result: perfdto.SessionResult{Accuracy: accuracy},
	}); err != nil {
		t.Fatalf("record session: %v", err)
	}
}

func (f fixture) resolve(t *testing.T, level int) gameparams.GameParameters {
	t.Helper()
	ctx := context.Background()
	base, err := f.difficulty.ResolveBaseParameters(ctx, "word-match", level)
	if err != nil {
		t.Fatalf("resolve base: %v", err)
	}
	out, err := f.difficulty.ApplyAdaptive(ctx, dto.ApplyAdaptiveInput{Params: base, GameID: "word-match", PlayerID: "p1", PlayerLevel: level})
	if err != nil {
		t.Fatalf("apply adaptive: %v", err)
	}
	return out
}

func TestStrugglingPlayerGetsEasierParameters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.play(t, 40)
	}
	got := f.resolve(t, 1)
	if got.ProblemCount != 9 || got.HintAvailability != 60 || got.TimeLimitMS != 34500 {
		t.Fatalf("unexpected adapted params %+v", got)
	}

	again := f.resolve(t, 1)
	if again != got {
		t.Fatalf("resolve without a new session must be idempotent: %+v vs %+v", again, got)
	}
	perf, err := f.performance.GetPerformance(context.Background(), "word-match", "p1")
	if err != nil {
		t.Fatalf("get performance: %v", err)
	}
	if len(perf.Adjustments) != 1 || perf.Adjustments[0].Reason != "low-success-rate" || perf.Adjustments[0].SessionNumber != 5 {
		t.Fatalf("expected exactly one logged adjustment, got %+v", perf.Adjustments)
	}
}

func TestNoAdaptationBeforeThreeSessions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if got := f.resolve(t, 1); got.ProblemCount != 10 {
		t.Fatalf("unknown player must get base params, got %+v", got)
	}
	f.play(t, 10)
	f.play(t, 10)
	if got := f.resolve(t, 1); got.ProblemCount != 10 || got.HintAvailability != 50 {
		t.Fatalf("two sessions must not adapt, got %+v", got)
	}
}

func TestCooldownSpacesAdjustments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.play(t, 30)
	}
	first, err := f.difficulty.Evaluate(ctx, "word-match", "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if first.Outcome != "adjusted" || first.Phase != "adjusted" {
		t.Fatalf("expected first adjustment at session 3, got %+v", first)
	}
	for i := 0; i < 2; i++ {
		f.play(t, 30)
		out, err := f.difficulty.Evaluate(ctx, "word-match", "p1")
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if out.Outcome != "cooling-down" {
			t.Fatalf("session %d must be cooling down, got %+v", out.SessionsRecorded, out)
		}
	}
	f.play(t, 30)
	out, err := f.difficulty.Evaluate(ctx, "word-match", "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.Outcome != "adjusted" || out.Offset.ProblemCount != -2 {
		t.Fatalf("expected second adjustment at session 6, got %+v", out)
	}
	repeat, err := f.difficulty.Evaluate(ctx, "word-match", "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if repeat.Outcome != "unchanged" || repeat.Offset != out.Offset {
		t.Fatalf("re-evaluating the same session must not adjust, got %+v", repeat)
	}
}

func TestLevelUpResetsOffset(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.play(t, 20)
	}
	if got := f.resolve(t, 1); got.ProblemCount != 9 {
		t.Fatalf("expected adaptation at level 1, got %+v", got)
	}
	got := f.resolve(t, 5)
	if got.ProblemCount != 12 || got.HintAvailability != 50 {
		t.Fatalf("level up must start from the new level's base, got %+v", got)
	}
	perf, _ := f.performance.GetPerformance(context.Background(), "word-match", "p1")
	if perf.CurrentLevel != 5 || perf.Adjustments[len(perf.Adjustments)-1].Reason != "level-up" {
		t.Fatalf("expected level-up logged, got level=%d adjustments=%+v", perf.CurrentLevel, perf.Adjustments)
	}
}

func TestLowerLevelLookupKeepsTuning(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.play(t, 40)
	}
	tuned := f.resolve(t, 3)
	if tuned.ProblemCount != 9 || tuned.TimeLimitMS != 34500 || tuned.HintAvailability != 60 {
		t.Fatalf("expected adaptation at level 3, got %+v", tuned)
	}
	f.resolve(t, 2)
	if again := f.resolve(t, 3); again != tuned {
		t.Fatalf("lookup at a lower level changed tuning: %+v vs %+v", again, tuned)
	}
	perf, err := f.performance.GetPerformance(context.Background(), "word-match", "p1")
	if err != nil {
		t.Fatalf("get performance: %v", err)
	}
	if perf.CurrentLevel != 3 {
		t.Fatalf("expected level 3 kept, got %d", perf.CurrentLevel)
	}
	for _, a := range perf.Adjustments {
		if a.Reason == "level-up" {
			t.Fatalf("unexpected level-up adjustment %+v", a)
		}
	}
}

func TestForceAdjustmentIsScopedAndExpires(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.play(t, 70)

	out, err := f.difficulty.ForceAdjustment(ctx, dto.ForceAdjustmentInput{
		GameID: "word-match", PlayerID: "p1",
		Patch: gameparams.Patch{ProblemCount: gameparams.Int(4)},
		TTL:   time.Hour,
		Note:  "qa",
	})
	if err != nil {
		t.Fatalf("force adjustment: %v", err)
	}
	if !out.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", out.ExpiresAt)
	}
	if got := f.resolve(t, 1); got.ProblemCount != 4 {
		t.Fatalf("override not applied, got %+v", got)
	}
	base, _ := f.difficulty.ResolveBaseParameters(ctx, "word-match", 1)
	if base.ProblemCount != 10 {
		t.Fatalf("override must not touch the base configuration, got %+v", base)
	}
	perf, _ := f.performance.GetPerformance(ctx, "word-match", "p1")
	last := perf.Adjustments[len(perf.Adjustments)-1]
	if last.Reason != "manual-override" || perf.Adaptive.LastAdjustedSession != 1 {
		t.Fatalf("expected manual-override logged with cooldown reset, got %+v", perf)
	}

	f.clock.Advance(2 * time.Hour)
	if got := f.resolve(t, 1); got.ProblemCount != 10 {
		t.Fatalf("expired override must not apply, got %+v", got)
	}
}

func TestForceAdjustmentValidatesPatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.difficulty.ForceAdjustment(context.Background(), dto.ForceAdjustmentInput{
		GameID: "word-match", PlayerID: "p1",
		Patch: gameparams.Patch{HintAvailability: gameparams.Float(150)},
	})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := f.difficulty.ResolveBaseParameters(context.Background(), "missing", 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected unknown game to be not found, got %v", err)
	}
}

func TestRecordFeedbackAdjustsImmediately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.play(t, 75)

	out, err := f.difficulty.RecordFeedback(ctx, dto.FeedbackInput{GameID: "word-match", PlayerID: "p1", Feedback: "too_easy"})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if out.Reason != "player-feedback" || out.Offset.ProblemCount != 1 || out.Offset.ConceptDensity != 0.5 {
		t.Fatalf("unexpected feedback result %+v", out)
	}
	if _, err := f.difficulty.RecordFeedback(ctx, dto.FeedbackInput{GameID: "word-match", PlayerID: "p1", Feedback: "meh"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid feedback to be rejected, got %v", err)
	}
	if _, err := f.difficulty.RecordFeedback(ctx, dto.FeedbackInput{GameID: "word-match", PlayerID: "ghost", Feedback: "too_hard"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected unknown player to be not found, got %v", err)
	}
}
