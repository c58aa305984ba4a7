package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const z95 = 1.96

type Action string

const (
	ActionContinue Action = "continue"
	ActionStop     Action = "stop"
	ActionExtend   Action = "extend"
	ActionModify   Action = "modify"
)

type Recommendation struct {
	Action     Action `json:"action"`
	Reason     string `json:"reason"`
	ExtendDays int    `json:"extend_days,omitempty"`
}

type VariantStats struct {
	VariantID  string  `json:"variant_id"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	SampleSize int     `json:"sample_size"`
	CILow      float64 `json:"ci_low"`
	CIHigh     float64 `json:"ci_high"`
}

type StatisticalResult struct {
	Metric         Metric         `json:"metric"`
	Variants       []VariantStats `json:"variants"`
	Winner         string         `json:"winner,omitempty"`
	PValue         float64        `json:"p_value"`
	Confidence     float64        `json:"confidence"`
	EffectSize     float64        `json:"effect_size"`
	TStatistic     float64        `json:"t_statistic"`
	Recommendation Recommendation `json:"recommendation"`
}

func (r StatisticalResult) Significant() bool {
	return r.Winner != ""
}

func (r StatisticalResult) TotalSamples() int {
	n := 0
	for _, v := range r.Variants {
		n += v.SampleSize
	}
	return n
}

// Describe computes mean, sample standard deviation and the 95% interval of
// the mean.
func Describe(variantID string, values []float64) VariantStats {
	out := VariantStats{VariantID: variantID, SampleSize: len(values)}
	switch len(values) {
	case 0:
		return out
	case 1:
		out.Mean = values[0]
	default:
		out.Mean, out.StdDev = stat.MeanStdDev(values, nil)
	}
	margin := z95 * stat.StdErr(out.StdDev, float64(len(values)))
	out.CILow, out.CIHigh = out.Mean-margin, out.Mean+margin
	return out
}

// Analyze compares the variants on one metric. order fixes the variant
// order of the result; variants without samples are reported empty.
func Analyze(m Metric, order []string, values map[string][]float64) StatisticalResult {
	res := StatisticalResult{Metric: m, PValue: 1}
	for _, id := range order {
		res.Variants = append(res.Variants, Describe(id, values[id]))
	}
	if len(order) == 2 {
		testPair(&res, values[order[0]], values[order[1]])
	}
	res.Confidence = 1 - res.PValue
	res.Recommendation = Recommend(res)
	return res
}

// testPair runs a pooled-variance two-sample t-test. Degenerate input leaves
// p at 1 and no winner.
func testPair(res *StatisticalResult, a, b []float64) {
	if len(a) < 2 || len(b) < 2 {
		return
	}
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	pooled := ((na-1)*varA + (nb-1)*varB) / (na + nb - 2)
	se := math.Sqrt(pooled * (1/na + 1/nb))
	if pooled <= 0 || se == 0 || math.IsNaN(se) {
		return
	}
	res.TStatistic = (meanA - meanB) / se
	res.EffectSize = math.Abs(meanA-meanB) / math.Sqrt(pooled)
	res.PValue = PValue(math.Abs(res.TStatistic))
	if res.PValue < 0.05 {
		res.Winner = res.Variants[0].VariantID
		if meanB > meanA {
			res.Winner = res.Variants[1].VariantID
		}
	}
}

// PValue maps |t| onto the two-sided critical values at 1%, 5% and 10%.
// Anything weaker reports 0.20.
func PValue(t float64) float64 {
	switch {
	case t > 2.576:
		return 0.01
	case t > 1.96:
		return 0.05
	case t > 1.645:
		return 0.10
	default:
		return 0.20
	}
}

func Recommend(res StatisticalResult) Recommendation {
	total := res.TotalSamples()
	switch {
	case res.Confidence >= 0.95 && res.EffectSize >= 0.2:
		return Recommendation{Action: ActionStop, Reason: "significant result with meaningful effect size"}
	case total < 200:
		return Recommendation{Action: ActionContinue, Reason: "insufficient sample size", ExtendDays: 7}
	case res.Confidence < 0.8:
		return Recommendation{Action: ActionExtend, Reason: "low confidence, extend test duration", ExtendDays: 14}
	default:
		return Recommendation{Action: ActionContinue, Reason: "collecting more data"}
	}
}

// AnalyzeAll runs Analyze for every metric over the given samples.
func AnalyzeAll(variants []Variant, samples []MetricSample) []StatisticalResult {
	order := make([]string, 0, len(variants))
	for _, v := range variants {
		order = append(order, v.ID)
	}
	out := make([]StatisticalResult, 0, len(Metrics))
	for _, m := range Metrics {
		out = append(out, Analyze(m, order, ByVariant(samples, m)))
	}
	return out
}

// Averages returns the per-variant mean of a metric, sorted by variant id.
func Averages(samples []MetricSample, m Metric) []VariantStats {
	grouped := ByVariant(samples, m)
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]VariantStats, 0, len(ids))
	for _, id := range ids {
		out = append(out, Describe(id, grouped[id]))
	}
	return out
}
