package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	diffout "gametune/internal/modules/difficulty/adapter/out"
	diffservice "gametune/internal/modules/difficulty/service"
	diffusecase "gametune/internal/modules/difficulty/usecase"
	expout "gametune/internal/modules/experiment/adapter/out"
	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	expservice "gametune/internal/modules/experiment/service"
	expusecase "gametune/internal/modules/experiment/usecase"
	gameout "gametune/internal/modules/gameplay/adapter/out"
	"gametune/internal/modules/gameplay/dto"
	gamein "gametune/internal/modules/gameplay/port/in"
	"gametune/internal/modules/gameplay/service"
	"gametune/internal/modules/gameplay/usecase"
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
  - id: sentence-builder
    name: Sentence Builder
    base:
      problem_count: 8
      time_limit_ms: 45000
      hint_availability: 40
      concept_density: 1
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

type counterID struct {
	mu sync.Mutex
	n  int
}

func (c *counterID) New() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("id%04d-0000", c.n)
}

type engine struct {
	clock       *fakeClock
	performance perfin.Usecase
	experiments expin.Usecase
	gameplay    gamein.Usecase
}

func newEngine(t *testing.T) engine {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ids := &counterID{}
	locks := keylock.New(time.Second)
	catalog, err := diffout.ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	perf := perfusecase.NewInteractor(perfservice.NewPerformanceService(clk, ids, perfout.NewMemoryStore(), locks, nil))
	diff := diffusecase.NewInteractor(diffservice.NewDifficultyService(clk, catalog, diffout.NewMemoryOverrideStore(), nil), perf, nil)
	exp := expusecase.NewInteractor(expservice.NewExperimentService(clk, ids, expout.NewMemoryStore(), expout.NewMemorySampleStore(), expout.NewMemoryAlertLog(), locks, nil))
	game := usecase.NewInteractor(service.NewGameplayService(clk, gameout.NewMemoryDebugStore(), nil), perf, diff, exp)
	return engine{clock: clk, performance: perf, experiments: exp, gameplay: game}
}

func (e engine) submit(t *testing.T, gameID, playerID string, accuracy float64) dto.SubmitSessionOutput {
	t.Helper()
	e.clock.Advance(time.Minute)
	out, err := e.gameplay.SubmitSessionResult(context.Background(), dto.SubmitSessionInput{
		GameID:      gameID,
		PlayerID:    playerID,
		PlayerLevel: 1,
		Result:      perfdto.SessionResult{TotalProblems: 10, ProblemsAttempted: 10, Accuracy: accuracy, Score: accuracy * 10},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return out
}

func (e engine) params(t *testing.T, gameID, playerID string) dto.ParametersOutput {
	t.Helper()
	out, err := e.gameplay.GetGameParameters(context.Background(), dto.ResolveInput{GameID: gameID, PlayerID: playerID, PlayerLevel: 1})
	if err != nil {
		t.Fatalf("get parameters: %v", err)
	}
	return out
}

func (e engine) hintExperiment(t *testing.T) expdto.ExperimentOutput {
	t.Helper()
	exp, err := e.experiments.CreateExperiment(context.Background(), expdto.CreateExperimentInput{
		Name:        "hints",
		EndAt:       e.clock.Now().Add(30 * 24 * time.Hour),
		TargetGames: []string{"word-match"},
		SampleSize:  100,
		Variants: []expdto.Variant{
			{ID: "A", Weight: 50},
			{ID: "B", Weight: 50, Overrides: gameparams.Patch{HintAvailability: gameparams.Float(80)}},
		},
	})
	if err != nil {
		t.Fatalf("create experiment: %v", err)
	}
	return exp
}

// playerIn finds a player the experiment assigns to variant.
func (e engine) playerIn(t *testing.T, variant string) string {
	t.Helper()
	for i := 0; i < 1000; i++ {
		player := fmt.Sprintf("player-%d", i)
		out, err := e.experiments.AssignVariant(context.Background(), player, "word-match")
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if out.Variant.ID == variant {
			return player
		}
	}
	t.Fatalf("no player lands in %s", variant)
	return ""
}

func TestResolveIsIdempotentAfterAdaptation(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	for i := 0; i < 5; i++ {
		e.submit(t, "word-match", "p1", 40)
	}
	first := e.params(t, "word-match", "p1")
	if first.Params.ProblemCount != 9 || first.Params.HintAvailability != 60 || first.Params.TimeLimitMS != 34500 {
		t.Fatalf("unexpected adapted params %+v", first.Params)
	}
	second := e.params(t, "word-match", "p1")
	if second.Params != first.Params {
		t.Fatalf("second resolve differs: %+v vs %+v", second.Params, first.Params)
	}
	if first.ExperimentID != "" || len(first.Layers) != 2 {
		t.Fatalf("unexpected layers %+v", first)
	}
}

func TestVariantOverridesWin(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	exp := e.hintExperiment(t)
	b := e.playerIn(t, "B")
	a := e.playerIn(t, "A")

	gotB := e.params(t, "word-match", b)
	if gotB.Params.HintAvailability != 80 || gotB.VariantID != "B" || gotB.ExperimentID != exp.ID {
		t.Fatalf("variant B params = %+v", gotB)
	}
	if gotB.Layers[len(gotB.Layers)-1] != "variant" {
		t.Fatalf("layers = %v", gotB.Layers)
	}
	gotA := e.params(t, "word-match", a)
	if gotA.Params.HintAvailability != 50 || gotA.VariantID != "A" {
		t.Fatalf("variant A params = %+v", gotA)
	}
	other := e.params(t, "sentence-builder", b)
	if other.ExperimentID != "" || other.Params.HintAvailability != 40 {
		t.Fatalf("untargeted game got experiment params %+v", other)
	}
}

func TestSubmitRecordsMetricAndEnrollment(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	exp := e.hintExperiment(t)
	player := e.playerIn(t, "A")

	first := e.submit(t, "word-match", player, 70)
	if !first.FirstParticipation || first.ExperimentID != exp.ID || first.VariantID != "A" || first.SessionsRecorded != 1 {
		t.Fatalf("first submit = %+v", first)
	}
	second := e.submit(t, "word-match", player, 75)
	if second.FirstParticipation || second.SessionsRecorded != 2 {
		t.Fatalf("second submit = %+v", second)
	}

	perf, err := e.performance.GetPerformance(context.Background(), "word-match", player)
	if err != nil {
		t.Fatalf("get performance: %v", err)
	}
	enrollments := 0
	for _, adj := range perf.Adjustments {
		if adj.Reason == service.ReasonExperiment {
			enrollments++
			if !adj.Delta.IsZero() || adj.SessionNumber != 1 {
				t.Fatalf("enrollment adjustment = %+v", adj)
			}
		}
	}
	if enrollments != 1 {
		t.Fatalf("expected one enrollment entry, got %d in %+v", enrollments, perf.Adjustments)
	}
	got, err := e.experiments.Get(context.Background(), exp.ID)
	if err != nil || got.ParticipantCount != 1 {
		t.Fatalf("participants = %d %v", got.ParticipantCount, err)
	}
}

func TestSubmitEvaluatesDifficulty(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	var last dto.SubmitSessionOutput
	for i := 0; i < 3; i++ {
		last = e.submit(t, "sentence-builder", "p1", 95)
	}
	if last.Evaluation.Outcome != "adjusted" || last.Evaluation.Reason != "high-success-rate" {
		t.Fatalf("evaluation = %+v", last.Evaluation)
	}
	got := e.params(t, "sentence-builder", "p1")
	if got.Params.ProblemCount != 9 || got.Params.HintAvailability != 30 {
		t.Fatalf("params after harder adjustment = %+v", got.Params)
	}
}

func TestDebugModeOverlaysLast(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	e.hintExperiment(t)
	player := e.playerIn(t, "B")
	ctx := context.Background()

	if _, err := e.gameplay.SetDebugMode(ctx, dto.DebugInput{Enabled: true, Patch: gameparams.Patch{HintAvailability: gameparams.Float(5), ProblemCount: gameparams.Int(3)}}); err != nil {
		t.Fatalf("set debug: %v", err)
	}
	got := e.params(t, "word-match", player)
	if got.Params.HintAvailability != 5 || got.Params.ProblemCount != 3 || got.Layers[len(got.Layers)-1] != "debug" {
		t.Fatalf("debug params = %+v", got)
	}

	off, err := e.gameplay.SetDebugMode(ctx, dto.DebugInput{Enabled: false, Patch: gameparams.Patch{ProblemCount: gameparams.Int(4)}})
	if err != nil {
		t.Fatalf("disable debug: %v", err)
	}
	if off.Enabled || !off.Patch.IsZero() {
		t.Fatalf("disabled debug kept patch: %+v", off)
	}
	if got := e.params(t, "word-match", player); got.Params.HintAvailability != 80 {
		t.Fatalf("params after disabling debug = %+v", got.Params)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	if _, err := e.gameplay.GetGameParameters(ctx, dto.ResolveInput{GameID: "word-match"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := e.gameplay.GetGameParameters(ctx, dto.ResolveInput{GameID: "chess", PlayerID: "p1"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := e.gameplay.SubmitSessionResult(ctx, dto.SubmitSessionInput{GameID: "chess", PlayerID: "p1"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on submit, got %v", err)
	}
}
