package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// PRICING POLICY - (activityType, magnitude) -> raw reward
// =============================================================================

// Rates holds the configurable per-unit reward rates.
type Rates struct {
	Per1000Steps     int64
	PerWorkoutMinute int64
}

// DefaultRates are used when no configuration overrides them.
func DefaultRates() Rates {
	return Rates{Per1000Steps: 10, PerWorkoutMinute: 5}
}

// PricingPolicy converts a validated measurement into a raw (pre-cap)
// reward. Pure and stateless: no side effects, no error conditions.
type PricingPolicy struct {
	rates Rates
}

func NewPricingPolicy(rates Rates) PricingPolicy {
	return PricingPolicy{rates: rates}
}

// Price returns the raw reward for a measurement.
//
//	STEPS:   floor(magnitude / 1000 * Per1000Steps)
//	WORKOUT: magnitude * PerWorkoutMinute
//
// The caller guarantees magnitude >= 1 and a valid type.
func (p PricingPolicy) Price(t ActivityType, magnitude int64) Amount {
	switch t {
	case ActivitySteps:
		coins := decimal.NewFromInt(magnitude).
			Div(decimal.NewFromInt(1000)).
			Mul(decimal.NewFromInt(p.rates.Per1000Steps)).
			Floor()
		return Amount{Value: coins}
	case ActivityWorkout:
		// Multiply in decimal; int64 arithmetic could overflow for
		// extreme durations and turn the reward negative.
		coins := decimal.NewFromInt(magnitude).
			Mul(decimal.NewFromInt(p.rates.PerWorkoutMinute))
		return Amount{Value: coins}
	default:
		return ZeroCoins()
	}
}
