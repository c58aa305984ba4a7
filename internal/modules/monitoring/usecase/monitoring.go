package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	"gametune/internal/modules/monitoring/domain"
	mondto "gametune/internal/modules/monitoring/dto"
	monin "gametune/internal/modules/monitoring/port/in"
	"gametune/internal/modules/monitoring/service"
)

const DefaultInterval = time.Minute

type monitor struct {
	cancel context.CancelFunc
}

// Interactor keeps one goroutine per running experiment, keyed by id.
type Interactor struct {
	svc         *service.MonitorService
	experiments expin.Usecase
	interval    time.Duration
	logger      hclog.Logger

	mu       sync.Mutex
	base     context.Context
	running  bool
	monitors map[string]*monitor
	wg       sync.WaitGroup
}

func NewInteractor(svc *service.MonitorService, experiments expin.Usecase, interval time.Duration) monin.Usecase {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Interactor{
		svc:         svc,
		experiments: experiments,
		interval:    interval,
		logger:      svc.Logger(),
		monitors:    map[string]*monitor{},
	}
}

func (i *Interactor) Run(ctx context.Context) error {
	i.mu.Lock()
	i.base = ctx
	i.running = true
	i.mu.Unlock()

	list, err := i.experiments.List(ctx)
	if err != nil {
		i.Shutdown()
		return err
	}
	for _, exp := range list {
		if exp.Active {
			i.start(exp)
		}
	}
	i.logger.Info("monitoring started", "experiments", len(i.Monitored()))
	<-ctx.Done()
	i.Shutdown()
	return nil
}

func (i *Interactor) ExperimentStarted(_ context.Context, exp expdto.ExperimentOutput) {
	i.start(exp)
}

// ExperimentStopped cancels the monitor without waiting for it.
func (i *Interactor) ExperimentStopped(_ context.Context, experimentID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if m, ok := i.monitors[experimentID]; ok {
		m.cancel()
		delete(i.monitors, experimentID)
		i.logger.Debug("monitor cancelled", "experiment_id", experimentID)
	}
}

func (i *Interactor) Shutdown() {
	i.mu.Lock()
	i.running = false
	for id, m := range i.monitors {
		m.cancel()
		delete(i.monitors, id)
	}
	i.mu.Unlock()
	i.wg.Wait()
}

func (i *Interactor) Monitored() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	ids := make([]string, 0, len(i.monitors))
	for id := range i.monitors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (i *Interactor) CheckNow(ctx context.Context, experimentID string) (mondto.CheckOutput, error) {
	return i.tick(ctx, experimentID, nil)
}

func (i *Interactor) start(exp expdto.ExperimentOutput) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return
	}
	if _, ok := i.monitors[exp.ID]; ok {
		return
	}
	if ended(exp, i.svc.Now()) {
		i.logger.Debug("monitor skipped, window closed", "experiment_id", exp.ID, "end_at", exp.EndAt)
		return
	}
	interval := exp.Monitoring.Interval
	if interval <= 0 {
		interval = i.interval
	}
	ctx, cancel := context.WithCancel(i.base)
	m := &monitor{cancel: cancel}
	i.monitors[exp.ID] = m
	i.wg.Add(1)
	go i.loop(ctx, exp.ID, interval, m)
	i.logger.Debug("monitor started", "experiment_id", exp.ID, "interval", interval)
}

func (i *Interactor) loop(ctx context.Context, experimentID string, interval time.Duration, m *monitor) {
	defer i.wg.Done()
	defer i.release(experimentID, m)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	latch := domain.NewLatch()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out, err := i.tick(ctx, experimentID, latch)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				i.logger.Warn("monitor tick failed", "experiment_id", experimentID, "error", err)
				continue
			}
			if out.Stopped {
				return
			}
		}
	}
}

// release drops the registry entry if it still belongs to m.
func (i *Interactor) release(experimentID string, m *monitor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	m.cancel()
	if i.monitors[experimentID] == m {
		delete(i.monitors, experimentID)
	}
}

func (i *Interactor) tick(ctx context.Context, experimentID string, latch *domain.Latch) (mondto.CheckOutput, error) {
	out := mondto.CheckOutput{ExperimentID: experimentID}
	exp, err := i.experiments.Get(ctx, experimentID)
	if err != nil {
		return out, err
	}
	if !exp.Active {
		out.Stopped = true
		out.Reason = "inactive"
		return out, nil
	}
	if ended(exp, i.svc.Now()) {
		out.Stopped = true
		out.Reason = "window closed"
		return out, nil
	}
	results, err := i.experiments.Analyze(ctx, experimentID)
	if err != nil {
		return out, err
	}
	ev := i.svc.Evaluate(ctx, exp, results, latch)
	out.Alerts = ev.Alerts
	if !ev.Stop {
		return out, nil
	}
	if _, err := i.experiments.StopExperiment(ctx, experimentID, ev.Reason); err != nil {
		return out, err
	}
	i.logger.Warn("experiment auto-stopped", "experiment_id", experimentID, "reason", ev.Reason)
	out.Stopped = true
	out.Reason = ev.Reason
	return out, nil
}

func ended(exp expdto.ExperimentOutput, now time.Time) bool {
	return !exp.EndAt.IsZero() && !now.Before(exp.EndAt)
}
