package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"gametune/internal/platform/gameparams"
)

// MinSessions is the history needed before any adaptive decision.
const MinSessions = 3

const (
	easierTimeStep = 0.20
	harderTimeStep = 0.10
	hintStep       = 10.0
	densityStep    = 0.5
)

type AdaptiveSettings struct {
	SuccessRateWindow int     `yaml:"success_rate_window"`
	MinSuccessRate    float64 `yaml:"min_success_rate"`
	MaxSuccessRate    float64 `yaml:"max_success_rate"`
	CooldownPeriod    int     `yaml:"cooldown_period"`
}

func DefaultAdaptiveSettings() AdaptiveSettings {
	return AdaptiveSettings{SuccessRateWindow: 10, MinSuccessRate: 60, MaxSuccessRate: 90, CooldownPeriod: 3}
}

// WithDefaults fills unset fields from DefaultAdaptiveSettings.
func (s AdaptiveSettings) WithDefaults() AdaptiveSettings {
	d := DefaultAdaptiveSettings()
	if s.SuccessRateWindow <= 0 {
		s.SuccessRateWindow = d.SuccessRateWindow
	}
	if s.MinSuccessRate == 0 {
		s.MinSuccessRate = d.MinSuccessRate
	}
	if s.MaxSuccessRate == 0 {
		s.MaxSuccessRate = d.MaxSuccessRate
	}
	if s.CooldownPeriod <= 0 {
		s.CooldownPeriod = d.CooldownPeriod
	}
	return s
}

type Reason string

const (
	ReasonLowSuccessRate  Reason = "low-success-rate"
	ReasonHighSuccessRate Reason = "high-success-rate"
	ReasonPlayerFeedback  Reason = "player-feedback"
	ReasonLevelUp         Reason = "level-up"
	ReasonManualOverride  Reason = "manual-override"
)

type Outcome string

const (
	OutcomeInsufficientData Outcome = "insufficient-data"
	OutcomeCoolingDown      Outcome = "cooling-down"
	OutcomeWithinRange      Outcome = "within-range"
	OutcomeAdjusted         Outcome = "adjusted"

	// OutcomeUnchanged means the current session count was already evaluated.
	OutcomeUnchanged Outcome = "unchanged"
)

type Decision struct {
	Outcome     Outcome
	Reason      Reason
	Delta       gameparams.Delta
	SuccessRate float64
}

// Decide evaluates the adaptive rule. accuracies are the retained sessions,
// oldest first; sessionsSinceAdjustment counts lifetime sessions since the
// last adjustment. params must already carry the accumulated offset.
func Decide(settings AdaptiveSettings, params gameparams.GameParameters, accuracies []float64, sessionsSinceAdjustment int) Decision {
	settings = settings.WithDefaults()
	if len(accuracies) < MinSessions {
		return Decision{Outcome: OutcomeInsufficientData}
	}
	window := accuracies
	if len(window) > settings.SuccessRateWindow {
		window = window[len(window)-settings.SuccessRateWindow:]
	}
	rate := stat.Mean(window, nil)
	if sessionsSinceAdjustment < settings.CooldownPeriod {
		return Decision{Outcome: OutcomeCoolingDown, SuccessRate: rate}
	}
	switch {
	case rate < settings.MinSuccessRate:
		return Decision{Outcome: OutcomeAdjusted, Reason: ReasonLowSuccessRate, Delta: EasierDelta(params), SuccessRate: rate}
	case rate > settings.MaxSuccessRate:
		return Decision{Outcome: OutcomeAdjusted, Reason: ReasonHighSuccessRate, Delta: HarderDelta(params), SuccessRate: rate}
	default:
		return Decision{Outcome: OutcomeWithinRange, SuccessRate: rate}
	}
}

// EasierDelta is the change that makes params easier: more time, more hints,
// one problem fewer. The result is the delta actually applied after
// clamping.
func EasierDelta(params gameparams.GameParameters) gameparams.Delta {
	raw := gameparams.Delta{
		TimeLimitMS:      timeChange(params, easierTimeStep),
		HintAvailability: hintStep,
		ProblemCount:     -1,
	}
	return params.Diff(params.Shift(raw))
}

// HarderDelta is the change that makes params harder.
func HarderDelta(params gameparams.GameParameters) gameparams.Delta {
	raw := gameparams.Delta{
		TimeLimitMS:      -timeChange(params, harderTimeStep),
		HintAvailability: -hintStep,
		ProblemCount:     1,
		ConceptDensity:   densityStep,
	}
	return params.Diff(params.Shift(raw))
}

// timeChange is step of the current time limit, capped by the
// MaxAdjustmentStep fraction when one is configured.
func timeChange(params gameparams.GameParameters, step float64) int {
	if limit := params.Adaptive.MaxAdjustmentStep; limit > 0 {
		step = math.Min(step, limit)
	}
	return int(math.Round(float64(params.TimeLimitMS) * step))
}
