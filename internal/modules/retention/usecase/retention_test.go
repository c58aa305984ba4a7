package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	diffin "gametune/internal/modules/difficulty/port/in"
	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	perfdto "gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	"gametune/internal/modules/retention/domain"
	"gametune/internal/modules/retention/service"
	"gametune/internal/modules/retention/usecase"
	"gametune/internal/platform/clock"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type fakePerformance struct {
	perfin.Usecase
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePerformance) PruneOlderThan(_ context.Context, cutoff time.Time) (perfdto.PruneReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return perfdto.PruneReport{}, f.err
	}
	return perfdto.PruneReport{Records: 3, RecordsDeleted: 1, SessionsRemoved: 12, AdjustmentsRemoved: 4}, nil
}

func (f *fakePerformance) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

type fakeExperiments struct {
	expin.Usecase
	cutoff time.Time
}

func (f *fakeExperiments) PruneOlderThan(_ context.Context, cutoff time.Time) (expdto.PruneReport, error) {
	f.cutoff = cutoff
	return expdto.PruneReport{SamplesRemoved: 40, AlertsRemoved: 2}, nil
}

type fakeDifficulty struct {
	diffin.Usecase
	at time.Time
}

func (f *fakeDifficulty) PurgeExpiredOverrides(_ context.Context, at time.Time) (int, error) {
	f.at = at
	return 5, nil
}

func TestRunOnceSweepsEveryStore(t *testing.T) {
	t.Parallel()
	perf, exp, diff := &fakePerformance{}, &fakeExperiments{}, &fakeDifficulty{}
	svc := service.NewSweepService(clock.Func(func() time.Time { return now }), domain.Policy{Retention: 48 * time.Hour}, nil)
	uc := usecase.NewInteractor(svc, perf, exp, diff)

	report, err := uc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	want := now.Add(-48 * time.Hour)
	if !report.Cutoff.Equal(want) || !perf.cutoffs[0].Equal(want) || !exp.cutoff.Equal(want) {
		t.Fatalf("cutoffs report=%s perf=%s exp=%s, want %s", report.Cutoff, perf.cutoffs[0], exp.cutoff, want)
	}
	if !diff.at.Equal(now) {
		t.Fatalf("overrides purged at %s, want %s", diff.at, now)
	}
	if report.SessionsRemoved != 12 || report.RecordsDeleted != 1 || report.SamplesRemoved != 40 || report.AlertsRemoved != 2 || report.OverridesPurged != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	perf, exp, diff := &fakePerformance{err: boom}, &fakeExperiments{}, &fakeDifficulty{}
	svc := service.NewSweepService(clock.Func(func() time.Time { return now }), domain.Policy{}, nil)
	uc := usecase.NewInteractor(svc, perf, exp, diff)

	report, err := uc.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if report.SamplesRemoved != 40 || report.OverridesPurged != 5 {
		t.Fatalf("later steps skipped: %+v", report)
	}
	if !report.Cutoff.Equal(now.Add(-domain.DefaultRetention)) {
		t.Fatalf("default retention not applied: %s", report.Cutoff)
	}
}

func TestRunSweepsOnEachTick(t *testing.T) {
	t.Parallel()
	perf := &fakePerformance{}
	svc := service.NewSweepService(clock.SystemClock{}, domain.Policy{Interval: 5 * time.Millisecond}, nil)
	uc := usecase.NewInteractor(svc, perf, &fakeExperiments{}, &fakeDifficulty{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- uc.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for perf.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ticked twice")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
