package rule

type Tier string

const (
	TierSafe     Tier = "safe"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// TierForSeverity is the single place where a severity score maps to a tier
// band. Callers must not duplicate these thresholds.
func TierForSeverity(severity int) Tier {
	switch {
	case severity >= 8:
		return TierCritical
	case severity >= 5:
		return TierWarning
	default:
		return TierSafe
	}
}

// Dominates reports whether t outranks other (critical > warning > safe).
func (t Tier) Dominates(other Tier) bool {
	return t.rank() > other.rank()
}

func (t Tier) rank() int {
	switch t {
	case TierCritical:
		return 2
	case TierWarning:
		return 1
	default:
		return 0
	}
}

// ActionForTier maps a tier to the action the pipeline recommends for it.
func ActionForTier(t Tier) Action {
	switch t {
	case TierCritical:
		return ActionBlock
	case TierWarning:
		return ActionWarn
	default:
		return ActionAllow
	}
}

// TierForAction is the inverse mapping used when an arbiter verdict becomes
// authoritative.
func TierForAction(a Action) Tier {
	switch a {
	case ActionBlock:
		return TierCritical
	case ActionWarn:
		return TierWarning
	default:
		return TierSafe
	}
}
