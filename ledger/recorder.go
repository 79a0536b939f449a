/*
recorder.go - The activity recorder, sole writer of the ledgers

PURPOSE:
  Orchestrates one recording: validate the measurement, price it, clamp it
  against today's cap, then atomically append the observation and (when
  coins were earned) the grant.

CONCURRENCY:
  The naive sequence "read today's total, clamp, write grant" is a
  check-then-act race: two concurrent calls can both observe a stale total
  and jointly overshoot the cap. The Recorder serializes the whole sequence
  per (user, type, day) key with a keyed mutex, and runs it inside a single
  store transaction so the two appends are all-or-nothing. No cross-user or
  cross-type locking; different keys proceed in parallel.

OUTCOMES:
  Cap-reached is a success, not an error: the raw activity is still
  recorded. The result distinguishes "no reward, cap reached" from
  "no reward, measurement too small to price".

SEE ALSO:
  - caps.go: The clamp arithmetic
  - store.go: The transactional store contract
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RECORD RESULT
// =============================================================================

// RecordResult reports the outcome of one recording.
type RecordResult struct {
	Observation Observation
	Granted     Amount
	CapReached  bool
	Message     string
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder validates, prices, clamps, and persists activity recordings.
type Recorder struct {
	store   TxStore
	pricing PricingPolicy
	caps    CapEnforcer
	windows WindowResolver
	now     func() time.Time

	locks keyedMutex
}

// NewRecorder creates a recorder. now defaults to time.Now when nil.
func NewRecorder(store TxStore, pricing PricingPolicy, caps CapEnforcer, windows WindowResolver, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		store:   store,
		pricing: pricing,
		caps:    caps,
		windows: windows,
		now:     now,
	}
}

// Record persists one activity measurement and its clamped reward grant.
//
// Steps:
//  1. Validate magnitude >= 1 and a known activity type
//  2. Price the measurement into a raw reward
//  3. Under the (user, type, day) key lock, inside one transaction:
//     read today's granted total, clamp, append observation, append grant
func (r *Recorder) Record(ctx context.Context, userID UserID, t ActivityType, magnitude int64) (RecordResult, error) {
	if !t.Valid() {
		return RecordResult{}, fmt.Errorf("%w: %q", ErrUnknownActivityType, t)
	}
	if magnitude < 1 {
		return RecordResult{}, &InvalidMagnitudeError{Type: t, Value: magnitude}
	}

	raw := r.pricing.Price(t, magnitude)
	now := r.now()
	window := r.windows.DayOf(now)

	// Serialize the check-then-grant sequence for this exact key.
	unlock := r.locks.lock(lockKey(userID, t, window.Start))
	defer unlock()

	var result RecordResult
	err := r.store.WithTx(ctx, func(s Store) error {
		prior, err := s.GrantedInWindow(ctx, userID, t, window)
		if err != nil {
			return err
		}

		granted, capReached := r.caps.Clamp(t, prior, raw)

		obs := Observation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Type:      t,
			Value:     magnitude,
			CreatedAt: now,
		}
		if err := s.AppendObservation(ctx, obs); err != nil {
			return err
		}

		if granted.IsPositive() {
			grant := Grant{
				ID:           uuid.NewString(),
				UserID:       userID,
				ActivityType: t,
				Amount:       granted,
				Reason:       grantReason(t, magnitude),
				CreatedAt:    now,
			}
			if err := s.AppendGrant(ctx, grant); err != nil {
				return err
			}
		}

		result = RecordResult{
			Observation: obs,
			Granted:     granted,
			CapReached:  capReached,
			Message:     outcomeMessage(t, raw, granted, capReached),
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return result, nil
}

func grantReason(t ActivityType, magnitude int64) string {
	if t == ActivitySteps {
		return fmt.Sprintf("Walked %d steps", magnitude)
	}
	return fmt.Sprintf("Worked out for %d minutes", magnitude)
}

func outcomeMessage(t ActivityType, raw, granted Amount, capReached bool) string {
	switch {
	case capReached && granted.IsZero():
		return "Activity recorded, but daily reward limit reached."
	case capReached:
		return fmt.Sprintf("You earned %s FitCoins and reached today's reward limit.", granted)
	case raw.IsZero():
		return "Activity recorded, but it was too small to earn FitCoins."
	case t == ActivityWorkout:
		return fmt.Sprintf("Excellent workout! You earned %s FitCoins!", granted)
	default:
		return fmt.Sprintf("Great job! You earned %s FitCoins!", granted)
	}
}

// =============================================================================
// KEYED MUTEX - Per (user, type, day) serialization
// =============================================================================

func lockKey(userID UserID, t ActivityType, dayStart time.Time) string {
	return string(userID) + "|" + string(t) + "|" + dayStart.Format("2006-01-02")
}

// keyedMutex hands out one mutex per key, reclaiming entries once the last
// holder releases. Contention per key is expected to be low (one user,
// bursts of a few requests).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
