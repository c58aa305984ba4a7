package domain_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gametune/internal/modules/experiment/domain"
	apperrors "gametune/internal/platform/errors"
)

var start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func validConfig() domain.Config {
	return domain.Config{
		ID:          "hints-1",
		Name:        "Hint availability",
		StartAt:     start,
		EndAt:       start.Add(30 * 24 * time.Hour),
		TargetGames: []string{"word-match"},
		SampleSize:  200,
		Active:      true,
		Variants: []domain.Variant{
			{ID: "A", Name: "control", Weight: 50},
			{ID: "B", Name: "more hints", Weight: 50},
		},
		Monitoring: domain.DefaultMonitoring(),
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	t.Parallel()
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Variants[0].Weight = 60
	cfg.Variants[1].Weight = 30
	cfg.SampleSize = 50
	err := cfg.Validate()
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %T", err)
	}
	if !verr.HasRule("weights_sum") || !verr.HasRule("min_sample_size") {
		t.Fatalf("missing violations: %+v", verr.Violations)
	}
}

func TestValidateSingleVariantAndWindow(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Variants = cfg.Variants[:1]
	cfg.Variants[0].Weight = 100
	cfg.EndAt = cfg.StartAt
	var verr *apperrors.ValidationError
	if !errors.As(cfg.Validate(), &verr) {
		t.Fatalf("expected validation error")
	}
	if !verr.HasRule("min_variants") || !verr.HasRule("window") {
		t.Fatalf("missing violations: %+v", verr.Violations)
	}
}

func TestValidateDuplicateVariantIDs(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Variants[1].ID = "A"
	var verr *apperrors.ValidationError
	if !errors.As(cfg.Validate(), &verr) || !verr.HasRule("variant_id_unique") {
		t.Fatalf("expected variant_id_unique violation, got %v", cfg.Validate())
	}
}

func TestRunningWindow(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	if cfg.Running(start.Add(-time.Second)) {
		t.Fatalf("running before start")
	}
	if !cfg.Running(start) {
		t.Fatalf("not running at start")
	}
	if cfg.Running(cfg.EndAt) {
		t.Fatalf("running at end")
	}
	cfg.Active = false
	if cfg.Running(start.Add(time.Hour)) {
		t.Fatalf("stopped experiment running")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	clone := cfg.Clone()
	clone.Variants[0].Weight = 10
	clone.TargetGames[0] = "other"
	if cfg.Variants[0].Weight != 50 || cfg.TargetGames[0] != "word-match" {
		t.Fatalf("clone shares slices with original")
	}
}

func TestBucketIsDeterministic(t *testing.T) {
	t.Parallel()
	a := domain.Bucket("p1", "word-match")
	b := domain.Bucket("p1", "word-match")
	if a != b {
		t.Fatalf("bucket changed: %v vs %v", a, b)
	}
	if a < 0 || a >= 100 {
		t.Fatalf("bucket out of range: %v", a)
	}
}

func TestPickSplitsEvenly(t *testing.T) {
	t.Parallel()
	variants := validConfig().Variants
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		v, ok := domain.Pick(variants, domain.Bucket(fmt.Sprintf("player-%d", i), "word-match"))
		if !ok {
			t.Fatalf("no variant picked")
		}
		counts[v.ID]++
	}
	for _, id := range []string{"A", "B"} {
		if counts[id] < 450 || counts[id] > 550 {
			t.Fatalf("variant %s got %d of 1000", id, counts[id])
		}
	}
}

func TestPickSkipsZeroWeight(t *testing.T) {
	t.Parallel()
	variants := []domain.Variant{{ID: "A", Weight: 0}, {ID: "B", Weight: 100}}
	for _, bucket := range []float64{0, 50, 99.99} {
		v, ok := domain.Pick(variants, bucket)
		if !ok || v.ID != "B" {
			t.Fatalf("bucket %v picked %q", bucket, v.ID)
		}
	}
	if _, ok := domain.Pick(nil, 10); ok {
		t.Fatalf("expected no pick for empty variants")
	}
}

func TestNewSampleDerivesMetrics(t *testing.T) {
	t.Parallel()
	s := domain.NewSample("e", "A", "p", "g", start, domain.SessionOutcome{
		TotalProblems:     10,
		ProblemsAttempted: 8,
		HintsUsed:         2,
		Retries:           0,
		Accuracy:          75,
		Score:             600,
	})
	if math.Abs(s.CompletionRate-0.8) > 1e-9 {
		t.Fatalf("completion = %v", s.CompletionRate)
	}
	// 0.8*60 + 0.8*20 + 1*20
	if math.Abs(s.EngagementScore-84) > 1e-9 {
		t.Fatalf("engagement = %v", s.EngagementScore)
	}
	if s.Value(domain.MetricAccuracy) != 75 || s.Value(domain.MetricScore) != 600 {
		t.Fatalf("unexpected values %+v", s)
	}
}
