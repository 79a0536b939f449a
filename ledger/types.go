/*
Package ledger provides the FitCoin reward ledger engine.

PURPOSE:
  This package contains the types and algorithms that turn raw activity
  measurements (step counts, workout minutes) into bounded FitCoin grants.
  It prices a measurement, clamps the reward against a per-user daily cap,
  and records both the observation and the grant as one atomic unit.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A coin quantity backed by decimal.Decimal
  - ActivityType: STEPS or WORKOUT, the two supported measurements
  - Observation: An immutable record of a raw activity measurement
  - Grant: An immutable ledger entry crediting a user with coins

DESIGN PRINCIPLES:
  1. Immutability: Observations and grants are never updated or deleted
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Explicit typing: Grants carry their ActivityType as a real field,
     never recovered from reason text
  4. Single source of truth: Every earned-coin figure is a sum over grants

SEE ALSO:
  - pricing.go: Measurement to raw reward conversion
  - caps.go: Daily cap clamping
  - recorder.go: The atomic record-and-grant orchestrator
  - aggregate.go: Read-side summaries and history
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - FitCoin quantity
// =============================================================================

// Amount is a non-negative FitCoin quantity. Coin amounts are always
// integral; decimal arithmetic keeps intermediate pricing math exact.
type Amount struct {
	Value decimal.Decimal
}

func NewCoins(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

func ZeroCoins() Amount {
	return Amount{Value: decimal.Zero}
}

func (a Amount) Add(b Amount) Amount        { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount        { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) IsZero() bool               { return a.Value.IsZero() }
func (a Amount) IsPositive() bool           { return a.Value.IsPositive() }
func (a Amount) LessThan(b Amount) bool     { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThan(b Amount) bool  { return a.Value.GreaterThan(b.Value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Value.GreaterThanOrEqual(b.Value) }
func (a Amount) Equal(b Amount) bool        { return a.Value.Equal(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Int64 returns the amount as an integer coin count.
func (a Amount) Int64() int64 {
	return a.Value.IntPart()
}

func (a Amount) String() string { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string

// =============================================================================
// ACTIVITY TYPE
// =============================================================================

// ActivityType identifies the kind of measurement an observation carries.
// Grants record the type they originated from as an explicit field so the
// read side never infers it from free text.
type ActivityType string

const (
	ActivitySteps   ActivityType = "STEPS"
	ActivityWorkout ActivityType = "WORKOUT"
)

// Valid reports whether t is one of the supported activity types.
func (t ActivityType) Valid() bool {
	return t == ActivitySteps || t == ActivityWorkout
}

// =============================================================================
// OBSERVATION - Raw activity measurement
// =============================================================================

// Observation records a single raw measurement exactly as reported.
// It is informational: the cap check never consults observations.
type Observation struct {
	ID        string
	UserID    UserID
	Type      ActivityType
	Value     int64 // steps or minutes, always >= 1
	CreatedAt time.Time
}

// =============================================================================
// GRANT - Immutable reward ledger entry
// =============================================================================

// Grant credits a user with coins. Grants are the sole source of truth for
// earned totals, both lifetime and per day. Created only by the Recorder,
// only when the clamped reward is positive.
type Grant struct {
	ID           string
	UserID       UserID
	ActivityType ActivityType
	Amount       Amount
	Reason       string // human-readable origin, e.g. "Walked 5000 steps"
	CreatedAt    time.Time
}
