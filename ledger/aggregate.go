/*
aggregate.go - Read-side queries over the ledgers

PURPOSE:
  Serves today's progress, lifetime totals, and paginated grant history.
  Never mutates state. Uses the same WindowResolver as the Recorder so
  "today" means the identical interval on both paths.

CONSISTENCY:
  Summaries are informational: the per-field sums may be read at slightly
  different instants and are not required to form one snapshot. Cap
  enforcement never reads through this service.
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// SUMMARY SHAPES
// =============================================================================

// ActivityProgress reports one activity type's standing for today.
type ActivityProgress struct {
	Total         int64  // sum of today's raw magnitudes
	RewardsEarned Amount // sum of today's grants for this type
	RewardsMax    Amount // the configured daily cap
}

type TodaySummary struct {
	Steps   ActivityProgress
	Workout ActivityProgress
}

// AssetSummary reports a user's coin standing. TotalBalance equals
// TotalEarned while no spend path exists.
type AssetSummary struct {
	TotalBalance Amount
	TotalEarned  Amount
	EarnedToday  Amount
}

// AssetHistory is one page of a user's grants, newest first.
type AssetHistory struct {
	Items []Grant
	Total int
	Page  int
	Limit int
}

const defaultHistoryLimit = 20

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator answers read-only queries over the ledgers.
type Aggregator struct {
	store   Store
	caps    DailyCaps
	windows WindowResolver
	now     func() time.Time
}

// NewAggregator creates an aggregator. now defaults to time.Now when nil.
func NewAggregator(store Store, caps DailyCaps, windows WindowResolver, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: store, caps: caps, windows: windows, now: now}
}

// TodaySummary returns per-type progress for the current day.
func (a *Aggregator) TodaySummary(ctx context.Context, userID UserID) (TodaySummary, error) {
	window := a.windows.DayOf(a.now())

	steps, err := a.progress(ctx, userID, ActivitySteps, window)
	if err != nil {
		return TodaySummary{}, err
	}
	workout, err := a.progress(ctx, userID, ActivityWorkout, window)
	if err != nil {
		return TodaySummary{}, err
	}

	return TodaySummary{Steps: steps, Workout: workout}, nil
}

func (a *Aggregator) progress(ctx context.Context, userID UserID, t ActivityType, w Window) (ActivityProgress, error) {
	total, err := a.store.ObservedInWindow(ctx, userID, t, w)
	if err != nil {
		return ActivityProgress{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	earned, err := a.store.GrantedInWindow(ctx, userID, t, w)
	if err != nil {
		return ActivityProgress{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return ActivityProgress{
		Total:         total,
		RewardsEarned: earned,
		RewardsMax:    a.caps.Cap(t),
	}, nil
}

// AssetSummary returns lifetime and today totals across both types.
func (a *Aggregator) AssetSummary(ctx context.Context, userID UserID) (AssetSummary, error) {
	totalEarned, err := a.store.GrantedTotal(ctx, userID)
	if err != nil {
		return AssetSummary{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	window := a.windows.DayOf(a.now())
	earnedToday, err := a.store.GrantedTotalInWindow(ctx, userID, window)
	if err != nil {
		return AssetSummary{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return AssetSummary{
		TotalBalance: totalEarned, // balance = total earned, no spend path
		TotalEarned:  totalEarned,
		EarnedToday:  earnedToday,
	}, nil
}

// AssetHistory returns one page of grants, newest first. Out-of-range
// pages return an empty item list, never an error.
func (a *Aggregator) AssetHistory(ctx context.Context, userID UserID, page, limit int) (AssetHistory, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}

	items, total, err := a.store.GrantHistory(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return AssetHistory{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if items == nil {
		items = []Grant{}
	}

	return AssetHistory{Items: items, Total: total, Page: page, Limit: limit}, nil
}
