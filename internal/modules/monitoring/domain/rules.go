package domain

import (
	"fmt"
	"math"
	"time"

	expdto "gametune/internal/modules/experiment/dto"
)

const (
	KindThreshold    = "threshold"
	KindSignificance = "significance_reached"
	KindSampleSize   = "sample_size_reached"
	KindAdverse      = "adverse_effect"

	defaultSignificance = 0.95
	accuracyMetric      = "accuracy"
)

// StopReason is passed to StopExperiment on an adverse-effect stop.
const StopReason = "auto-stopped: adverse_effect"

type Evaluation struct {
	Alerts []expdto.Alert
	Stop   bool
	Reason string
}

// Evaluate checks one experiment against its alert thresholds and auto-stop
// conditions. Only adverse_effect can ask for a stop; the other conditions
// raise alerts.
func Evaluate(exp expdto.ExperimentOutput, results []expdto.StatisticalResult, now time.Time) Evaluation {
	byMetric := make(map[string]expdto.StatisticalResult, len(results))
	for _, r := range results {
		byMetric[r.Metric] = r
	}
	ev := Evaluation{}
	raise := func(a expdto.Alert) {
		a.ExperimentID = exp.ID
		a.RaisedAt = now
		ev.Alerts = append(ev.Alerts, a)
	}

	for _, th := range exp.Monitoring.AlertThresholds {
		for _, v := range byMetric[th.Metric].Variants {
			if v.SampleSize == 0 || !breached(th.Condition, v.Mean, th.Value) {
				continue
			}
			raise(expdto.Alert{
				Kind:      KindThreshold,
				Metric:    th.Metric,
				VariantID: v.VariantID,
				Value:     v.Mean,
				Threshold: th.Value,
				Severity:  th.Severity,
				Message:   fmt.Sprintf("%s of variant %s is %.2f, %s %.2f", th.Metric, v.VariantID, v.Mean, th.Condition, th.Value),
			})
		}
	}

	for _, c := range exp.Monitoring.AutoStopConditions {
		switch c.Type {
		case KindSignificance:
			limit := c.Threshold
			if limit <= 0 {
				limit = defaultSignificance
			}
			for _, r := range results {
				if r.Confidence < limit {
					continue
				}
				raise(expdto.Alert{
					Kind:      KindSignificance,
					Metric:    r.Metric,
					VariantID: r.Winner,
					Value:     r.Confidence,
					Threshold: limit,
					Severity:  "info",
					Message:   fmt.Sprintf("%s reached %.0f%% confidence", r.Metric, r.Confidence*100),
				})
			}
		case KindSampleSize:
			goal := c.Threshold
			if goal <= 0 {
				goal = float64(exp.SampleSize)
			}
			if goal > 0 && float64(exp.ParticipantCount) >= goal {
				raise(expdto.Alert{
					Kind:      KindSampleSize,
					Value:     float64(exp.ParticipantCount),
					Threshold: goal,
					Severity:  "info",
					Message:   fmt.Sprintf("%d participants reached the goal of %.0f", exp.ParticipantCount, goal),
				})
			}
		case KindAdverse:
			worst, drop, ok := AdverseDrop(byMetric[accuracyMetric])
			limit := math.Abs(c.Threshold)
			if !ok || drop <= limit {
				continue
			}
			raise(expdto.Alert{
				Kind:      KindAdverse,
				Metric:    accuracyMetric,
				VariantID: worst,
				Value:     drop,
				Threshold: limit,
				Severity:  "critical",
				Message:   fmt.Sprintf("variant %s accuracy is %.0f%% below the best variant", worst, drop*100),
			})
			if c.Action != "notify" && !ev.Stop {
				ev.Stop = true
				ev.Reason = StopReason
			}
		}
	}
	return ev
}

// AdverseDrop returns the worst variant and its relative accuracy drop
// (best-worst)/best. ok is false with fewer than two measured variants or a
// non-positive best mean.
func AdverseDrop(accuracy expdto.StatisticalResult) (string, float64, bool) {
	var (
		best, worst expdto.VariantStats
		measured    int
	)
	for _, v := range accuracy.Variants {
		if v.SampleSize == 0 {
			continue
		}
		if measured == 0 || v.Mean > best.Mean {
			best = v
		}
		if measured == 0 || v.Mean < worst.Mean {
			worst = v
		}
		measured++
	}
	if measured < 2 || best.Mean <= 0 {
		return "", 0, false
	}
	return worst.VariantID, (best.Mean - worst.Mean) / best.Mean, true
}

func breached(condition string, value, limit float64) bool {
	switch condition {
	case "below":
		return value < limit
	case "above":
		return value > limit
	default:
		return false
	}
}

// AlertKey identifies an alert across ticks.
func AlertKey(a expdto.Alert) string {
	return a.Kind + "/" + a.Metric + "/" + a.VariantID
}

// Latch suppresses an alert while its condition keeps holding. An alert
// fires again once it has cleared for one tick.
type Latch struct {
	raised map[string]bool
}

func NewLatch() *Latch {
	return &Latch{raised: map[string]bool{}}
}

func (l *Latch) Fresh(alerts []expdto.Alert) []expdto.Alert {
	next := make(map[string]bool, len(alerts))
	var out []expdto.Alert
	for _, a := range alerts {
		key := AlertKey(a)
		next[key] = true
		if !l.raised[key] {
			out = append(out, a)
		}
	}
	l.raised = next
	return out
}
