package domain

// Phase is where a player's adaptive loop stands.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCoolingDown Phase = "cooling-down"
	PhaseEligible    Phase = "eligible"
	PhaseAdjusted    Phase = "adjusted"
)

// PhaseOf derives the phase from the retained session count and the
// lifetime counters.
func PhaseOf(retained, sessionsRecorded, lastAdjusted, cooldown int) Phase {
	if cooldown <= 0 {
		cooldown = DefaultAdaptiveSettings().CooldownPeriod
	}
	switch {
	case retained < MinSessions:
		return PhaseIdle
	case lastAdjusted > 0 && sessionsRecorded == lastAdjusted:
		return PhaseAdjusted
	case sessionsRecorded-lastAdjusted < cooldown:
		return PhaseCoolingDown
	default:
		return PhaseEligible
	}
}
