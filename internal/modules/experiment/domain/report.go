package domain

import (
	"fmt"
	"strings"

	"gametune/internal/platform/markdown"
)

type reportMeta struct {
	Experiment string   `yaml:"experiment"`
	Name       string   `yaml:"name"`
	Reason     string   `yaml:"reason"`
	StoppedAt  string   `yaml:"stopped_at"`
	Samples    int      `yaml:"samples"`
	Winners    []string `yaml:"winners,omitempty"`
}

// RenderReport writes the final analysis as markdown with a YAML header.
func RenderReport(cfg Config, res Result, participants map[string]int) (string, error) {
	meta := reportMeta{
		Experiment: cfg.ID,
		Name:       cfg.Name,
		Reason:     res.Reason,
		StoppedAt:  res.StoppedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	body := strings.Builder{}
	fmt.Fprintf(&body, "# %s\n\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&body, "%s\n\n", cfg.Description)
	}
	body.WriteString("## Variants\n\n| Variant | Weight | Participants |\n|---|---|---|\n")
	for _, v := range cfg.Variants {
		fmt.Fprintf(&body, "| %s | %.1f | %d |\n", v.ID, v.Weight, participants[v.ID])
	}
	for i, r := range res.Results {
		if i == 0 {
			meta.Samples = r.TotalSamples()
		}
		if r.Winner != "" {
			meta.Winners = append(meta.Winners, fmt.Sprintf("%s:%s", r.Metric, r.Winner))
		}
		fmt.Fprintf(&body, "\n## %s\n\n| Variant | n | Mean | Std dev | 95%% CI |\n|---|---|---|---|---|\n", r.Metric)
		for _, v := range r.Variants {
			fmt.Fprintf(&body, "| %s | %d | %.3f | %.3f | %.3f .. %.3f |\n", v.VariantID, v.SampleSize, v.Mean, v.StdDev, v.CILow, v.CIHigh)
		}
		winner := r.Winner
		if winner == "" {
			winner = "none"
		}
		fmt.Fprintf(&body, "\nt = %.3f, p = %.2f, confidence = %.2f, effect size = %.3f, winner: %s\n", r.TStatistic, r.PValue, r.Confidence, r.EffectSize, winner)
		fmt.Fprintf(&body, "Recommendation: %s (%s)\n", r.Recommendation.Action, r.Recommendation.Reason)
	}
	return markdown.Render(meta, body.String())
}
