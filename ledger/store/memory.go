// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fitcoin/reward-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	observations map[ledger.UserID][]ledger.Observation
	grants       map[ledger.UserID][]ledger.Grant
}

func NewMemory() *Memory {
	return &Memory{
		observations: make(map[ledger.UserID][]ledger.Observation),
		grants:       make(map[ledger.UserID][]ledger.Grant),
	}
}

// AppendObservation adds a single observation. Append-only.
func (m *Memory) AppendObservation(_ context.Context, obs ledger.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendObservationLocked(obs)
	return nil
}

// AppendGrant adds a single grant. Append-only.
func (m *Memory) AppendGrant(_ context.Context, g ledger.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendGrantLocked(g)
	return nil
}

func (m *Memory) appendObservationLocked(obs ledger.Observation) {
	m.observations[obs.UserID] = append(m.observations[obs.UserID], obs)
}

func (m *Memory) appendGrantLocked(g ledger.Grant) {
	m.grants[g.UserID] = append(m.grants[g.UserID], g)
}

func (m *Memory) GrantedInWindow(_ context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grantedInWindowLocked(userID, t, w), nil
}

func (m *Memory) grantedInWindowLocked(userID ledger.UserID, t ledger.ActivityType, w ledger.Window) ledger.Amount {
	sum := ledger.ZeroCoins()
	for _, g := range m.grants[userID] {
		if g.ActivityType == t && w.Contains(g.CreatedAt) {
			sum = sum.Add(g.Amount)
		}
	}
	return sum
}

func (m *Memory) GrantedTotalInWindow(_ context.Context, userID ledger.UserID, w ledger.Window) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := ledger.ZeroCoins()
	for _, g := range m.grants[userID] {
		if w.Contains(g.CreatedAt) {
			sum = sum.Add(g.Amount)
		}
	}
	return sum, nil
}

func (m *Memory) GrantedTotal(_ context.Context, userID ledger.UserID) (ledger.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := ledger.ZeroCoins()
	for _, g := range m.grants[userID] {
		sum = sum.Add(g.Amount)
	}
	return sum, nil
}

func (m *Memory) ObservedInWindow(_ context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum int64
	for _, obs := range m.observations[userID] {
		if obs.Type == t && w.Contains(obs.CreatedAt) {
			sum += obs.Value
		}
	}
	return sum, nil
}

func (m *Memory) GrantHistory(_ context.Context, userID ledger.UserID, offset, limit int) ([]ledger.Grant, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]ledger.Grant, len(m.grants[userID]))
	copy(all, m.grants[userID])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For the memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	observations map[ledger.UserID][]ledger.Observation
	grants       map[ledger.UserID][]ledger.Grant
}

func (tm *TxMemory) snapshot() memorySnapshot {
	obsCopy := make(map[ledger.UserID][]ledger.Observation)
	for k, v := range tm.observations {
		obsCopy[k] = append([]ledger.Observation{}, v...)
	}
	grantCopy := make(map[ledger.UserID][]ledger.Grant)
	for k, v := range tm.grants {
		grantCopy[k] = append([]ledger.Grant{}, v...)
	}
	return memorySnapshot{observations: obsCopy, grants: grantCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.observations = s.observations
	tm.grants = s.grants
}

// txMemoryView gives the transaction callback lock-free access to the
// already-locked parent store.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) AppendObservation(_ context.Context, obs ledger.Observation) error {
	tv.parent.appendObservationLocked(obs)
	return nil
}

func (tv *txMemoryView) AppendGrant(_ context.Context, g ledger.Grant) error {
	tv.parent.appendGrantLocked(g)
	return nil
}

func (tv *txMemoryView) GrantedInWindow(_ context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (ledger.Amount, error) {
	return tv.parent.grantedInWindowLocked(userID, t, w), nil
}

func (tv *txMemoryView) GrantedTotalInWindow(_ context.Context, userID ledger.UserID, w ledger.Window) (ledger.Amount, error) {
	sum := ledger.ZeroCoins()
	for _, g := range tv.parent.grants[userID] {
		if w.Contains(g.CreatedAt) {
			sum = sum.Add(g.Amount)
		}
	}
	return sum, nil
}

func (tv *txMemoryView) GrantedTotal(_ context.Context, userID ledger.UserID) (ledger.Amount, error) {
	sum := ledger.ZeroCoins()
	for _, g := range tv.parent.grants[userID] {
		sum = sum.Add(g.Amount)
	}
	return sum, nil
}

func (tv *txMemoryView) ObservedInWindow(_ context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (int64, error) {
	var sum int64
	for _, obs := range tv.parent.observations[userID] {
		if obs.Type == t && w.Contains(obs.CreatedAt) {
			sum += obs.Value
		}
	}
	return sum, nil
}

func (tv *txMemoryView) GrantHistory(_ context.Context, userID ledger.UserID, offset, limit int) ([]ledger.Grant, int, error) {
	all := make([]ledger.Grant, len(tv.parent.grants[userID]))
	copy(all, tv.parent.grants[userID])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
