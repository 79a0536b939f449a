/*
store.go - Persistence interface for observations and grants

PURPOSE:
  Defines the interface between the engine and the database. The Store
  keeps two append-only records: raw activity observations and reward
  grants. Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  - AppendObservation() and AppendGrant() are the only write operations
  - NO Update() or Delete() methods exist
  - Retention/archival is out of scope

ATOMIC UNITS:
  WithTx() ensures all-or-nothing semantics. Recording an activity writes
  one observation and (when coins were earned) one grant; either both are
  visible afterwards or neither is.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - ledger/store: In-memory store for testing

SEE ALSO:
  - recorder.go: The sole writer
  - aggregate.go: Read-only consumers
*/
package ledger

import "context"

// =============================================================================
// STORE - Append-only persistence for the two ledgers
// =============================================================================

// Store handles persistence of observations and grants.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// AppendObservation persists a raw activity measurement.
	AppendObservation(ctx context.Context, obs Observation) error

	// AppendGrant persists a reward grant.
	AppendGrant(ctx context.Context, g Grant) error

	// GrantedInWindow sums grant amounts for one (user, type) pair whose
	// CreatedAt falls within the window. This is the cap-check read.
	GrantedInWindow(ctx context.Context, userID UserID, t ActivityType, w Window) (Amount, error)

	// GrantedTotalInWindow sums grant amounts for a user across all
	// activity types within the window.
	GrantedTotalInWindow(ctx context.Context, userID UserID, w Window) (Amount, error)

	// GrantedTotal sums all-time grant amounts for a user.
	GrantedTotal(ctx context.Context, userID UserID) (Amount, error)

	// ObservedInWindow sums raw magnitudes of a user's observations of one
	// type within the window.
	ObservedInWindow(ctx context.Context, userID UserID, t ActivityType, w Window) (int64, error)

	// GrantHistory returns grants for a user ordered by CreatedAt
	// descending, skipping offset rows and returning at most limit, plus
	// the total grant count for the user.
	GrantHistory(ctx context.Context, userID UserID, offset, limit int) ([]Grant, int, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic observation + grant writes
// =============================================================================

// TxStore wraps Store with transaction support. The Recorder performs its
// read-check-write inside WithTx so a failure partway leaves no state.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
