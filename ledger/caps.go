package ledger

// =============================================================================
// DAILY CAPS - Per-user, per-type, per-day reward ceilings
// =============================================================================

// DailyCaps holds the configured maximum cumulative grant per activity type,
// per user, per calendar day.
type DailyCaps struct {
	Steps   Amount
	Workout Amount
}

// DefaultDailyCaps are used when no configuration overrides them.
func DefaultDailyCaps() DailyCaps {
	return DailyCaps{Steps: NewCoins(100), Workout: NewCoins(100)}
}

// Cap returns the configured cap for an activity type.
func (c DailyCaps) Cap(t ActivityType) Amount {
	switch t {
	case ActivitySteps:
		return c.Steps
	case ActivityWorkout:
		return c.Workout
	default:
		return ZeroCoins()
	}
}

// =============================================================================
// CAP ENFORCER - Clamp a proposed reward against today's remaining headroom
// =============================================================================

// CapEnforcer clamps proposed rewards so the post-grant daily total never
// exceeds the cap. The arithmetic itself is pure; race-freedom comes from
// the Recorder, which serializes the read-check-write sequence per
// (user, type, day) key and runs it inside a single store transaction.
type CapEnforcer struct {
	caps DailyCaps
}

func NewCapEnforcer(caps DailyCaps) CapEnforcer {
	return CapEnforcer{caps: caps}
}

func (e CapEnforcer) Caps() DailyCaps { return e.caps }

// Clamp returns the grantable amount g with 0 <= g <= proposed and
// prior + g <= cap(t). capReached is true when the cap limited the grant:
// either nothing was grantable or the proposal was cut down.
func (e CapEnforcer) Clamp(t ActivityType, prior, proposed Amount) (granted Amount, capReached bool) {
	cap := e.caps.Cap(t)
	if prior.GreaterThanOrEqual(cap) {
		return ZeroCoins(), true
	}
	remaining := cap.Sub(prior)
	if proposed.GreaterThan(remaining) {
		return remaining, true
	}
	return proposed, false
}
