package gameparams

// Delta is an additive offset on the adaptively tuned fields.
type Delta struct {
	TimeLimitMS      int     `json:"time_limit_ms"`
	HintAvailability float64 `json:"hint_availability"`
	ProblemCount     int     `json:"problem_count"`
	ConceptDensity   float64 `json:"concept_density"`
}

func (d Delta) Add(other Delta) Delta {
	return Delta{
		TimeLimitMS:      d.TimeLimitMS + other.TimeLimitMS,
		HintAvailability: d.HintAvailability + other.HintAvailability,
		ProblemCount:     d.ProblemCount + other.ProblemCount,
		ConceptDensity:   d.ConceptDensity + other.ConceptDensity,
	}
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}
