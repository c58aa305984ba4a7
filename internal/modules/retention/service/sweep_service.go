package service

import (
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"gametune/internal/modules/retention/domain"
	"gametune/internal/platform/clock"
	"gametune/internal/platform/logging"
)

type SweepService struct {
	clock  clock.Clock
	policy domain.Policy
	logger hclog.Logger
}

func NewSweepService(clock clock.Clock, policy domain.Policy, logger hclog.Logger) *SweepService {
	return &SweepService{clock: clock, policy: policy.WithDefaults(), logger: logging.OrNull(logger).Named("retention")}
}

func (s *SweepService) Now() time.Time {
	return s.clock.Now()
}

func (s *SweepService) Cutoff() time.Time {
	return s.policy.Cutoff(s.clock.Now())
}

func (s *SweepService) Interval() time.Duration {
	return s.policy.Interval
}

func (s *SweepService) Logger() hclog.Logger {
	return s.logger
}
