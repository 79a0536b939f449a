package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoin/reward-engine/auth"
	"github.com/fitcoin/reward-engine/ledger"
	"github.com/fitcoin/reward-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var noon = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(at time.Time) ledger.Window {
	return ledger.NewWindowResolver(time.UTC).DayOf(at)
}

func grant(id string, atype ledger.ActivityType, amount int64, at time.Time) ledger.Grant {
	return ledger.Grant{
		ID:           id,
		UserID:       "user-1",
		ActivityType: atype,
		Amount:       ledger.NewCoins(amount),
		Reason:       "test grant",
		CreatedAt:    at,
	}
}

// =============================================================================
// LEDGER PERSISTENCE
// =============================================================================

func TestStore_WindowSums(t *testing.T) {
	// GIVEN: Grants inside and outside today's window, across both types
	// WHEN: Summing per type, per day, and lifetime
	// THEN: Each sum covers exactly its slice of the ledger

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendGrant(ctx, grant("g-1", ledger.ActivitySteps, 50, noon)))
	require.NoError(t, store.AppendGrant(ctx, grant("g-2", ledger.ActivityWorkout, 30, noon)))
	require.NoError(t, store.AppendGrant(ctx, grant("g-3", ledger.ActivitySteps, 40, noon.AddDate(0, 0, -1))))

	steps, err := store.GrantedInWindow(ctx, "user-1", ledger.ActivitySteps, day(noon))
	require.NoError(t, err)
	assert.Equal(t, int64(50), steps.Int64())

	today, err := store.GrantedTotalInWindow(ctx, "user-1", day(noon))
	require.NoError(t, err)
	assert.Equal(t, int64(80), today.Int64())

	lifetime, err := store.GrantedTotal(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), lifetime.Int64())
}

func TestStore_WindowBoundaries(t *testing.T) {
	// GIVEN: Grants at the exact start of today and at the next midnight
	// WHEN: Summing today's window
	// THEN: The start is included and the end excluded

	store := newTestStore(t)
	ctx := context.Background()
	w := day(noon)

	require.NoError(t, store.AppendGrant(ctx, grant("g-start", ledger.ActivitySteps, 10, w.Start)))
	require.NoError(t, store.AppendGrant(ctx, grant("g-end", ledger.ActivitySteps, 10, w.End)))

	sum, err := store.GrantedInWindow(ctx, "user-1", ledger.ActivitySteps, w)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Int64())
}

func TestStore_ObservedInWindow(t *testing.T) {
	// GIVEN: Observations of both types across two days
	// WHEN: Summing today's raw steps
	// THEN: Only today's step values are counted

	store := newTestStore(t)
	ctx := context.Background()

	obs := func(id string, atype ledger.ActivityType, value int64, at time.Time) ledger.Observation {
		return ledger.Observation{ID: id, UserID: "user-1", Type: atype, Value: value, CreatedAt: at}
	}
	require.NoError(t, store.AppendObservation(ctx, obs("o-1", ledger.ActivitySteps, 5000, noon)))
	require.NoError(t, store.AppendObservation(ctx, obs("o-2", ledger.ActivityWorkout, 30, noon)))
	require.NoError(t, store.AppendObservation(ctx, obs("o-3", ledger.ActivitySteps, 7000, noon.AddDate(0, 0, -1))))

	sum, err := store.ObservedInWindow(ctx, "user-1", ledger.ActivitySteps, day(noon))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), sum)
}

func TestStore_GrantHistory_NewestFirst(t *testing.T) {
	// GIVEN: Five grants with increasing timestamps
	// WHEN: Reading pages of two
	// THEN: Ordering is newest first with a stable total count

	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		g := grant(fmt.Sprintf("g-%d", i), ledger.ActivitySteps, 10, noon.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.AppendGrant(ctx, g))
	}

	page1, total, err := store.GrantHistory(ctx, "user-1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "g-4", page1[0].ID)
	assert.Equal(t, "g-3", page1[1].ID)

	page3, total, err := store.GrantHistory(ctx, "user-1", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "g-0", page3[0].ID)
}

func TestStore_GrantRoundTrip(t *testing.T) {
	// GIVEN: A persisted grant
	// WHEN: Reading it back through history
	// THEN: All fields survive, including the explicit activity type

	store := newTestStore(t)
	ctx := context.Background()

	in := grant("g-1", ledger.ActivityWorkout, 150, noon)
	in.Reason = "Worked out for 30 minutes"
	require.NoError(t, store.AppendGrant(ctx, in))

	out, _, err := store.GrantHistory(ctx, "user-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, in.ID, out[0].ID)
	assert.Equal(t, in.UserID, out[0].UserID)
	assert.Equal(t, ledger.ActivityWorkout, out[0].ActivityType)
	assert.Equal(t, int64(150), out[0].Amount.Int64())
	assert.Equal(t, in.Reason, out[0].Reason)
	assert.True(t, out[0].CreatedAt.Equal(noon))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that appends an observation and a grant
	// WHEN: The callback returns an error afterwards
	// THEN: Neither write is visible

	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.AppendObservation(ctx, ledger.Observation{
			ID: "o-1", UserID: "user-1", Type: ledger.ActivitySteps, Value: 1000, CreatedAt: noon,
		}); err != nil {
			return err
		}
		if err := s.AppendGrant(ctx, grant("g-1", ledger.ActivitySteps, 10, noon)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	observed, err := store.ObservedInWindow(ctx, "user-1", ledger.ActivitySteps, day(noon))
	require.NoError(t, err)
	assert.Zero(t, observed)

	granted, err := store.GrantedTotal(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, granted.IsZero())
}

func TestStore_WithTx_ReadsItsOwnWrites(t *testing.T) {
	// GIVEN: A grant appended inside an open transaction
	// WHEN: Summing inside the same transaction
	// THEN: The uncommitted write is visible to the callback

	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.AppendGrant(ctx, grant("g-1", ledger.ActivitySteps, 10, noon)); err != nil {
			return err
		}
		sum, err := s.GrantedInWindow(ctx, "user-1", ledger.ActivitySteps, day(noon))
		if err != nil {
			return err
		}
		assert.Equal(t, int64(10), sum.Int64())
		return nil
	})
	require.NoError(t, err)

	sum, err := store.GrantedInWindow(ctx, "user-1", ledger.ActivitySteps, day(noon))
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Int64(), "committed after the callback returns nil")
}

// =============================================================================
// USERS AND REFRESH TOKENS
// =============================================================================

func TestStore_UserRoundTrip(t *testing.T) {
	// GIVEN: A saved user
	// WHEN: Looking them up by ID and by Kakao ID
	// THEN: Both paths return the same record; misses return (nil, nil)

	store := newTestStore(t)
	ctx := context.Background()

	u := auth.User{
		ID:           "u-1",
		KakaoID:      "12345",
		Nickname:     "runner",
		ProfileImage: "https://img.example/p.png",
		CreatedAt:    noon,
	}
	require.NoError(t, store.SaveUser(ctx, u))

	byID, err := store.UserByID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, u.KakaoID, byID.KakaoID)
	assert.Equal(t, u.Nickname, byID.Nickname)
	assert.Equal(t, u.ProfileImage, byID.ProfileImage)

	byKakao, err := store.UserByKakaoID(ctx, "12345")
	require.NoError(t, err)
	require.NotNil(t, byKakao)
	assert.Equal(t, "u-1", byKakao.ID)

	missing, err := store.UserByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SaveUser_UpdatesProfileFields(t *testing.T) {
	// GIVEN: An existing user
	// WHEN: Saving again with a changed nickname
	// THEN: The profile fields are refreshed, not duplicated

	store := newTestStore(t)
	ctx := context.Background()

	u := auth.User{ID: "u-1", KakaoID: "12345", Nickname: "runner", CreatedAt: noon}
	require.NoError(t, store.SaveUser(ctx, u))

	u.Nickname = "sprinter"
	require.NoError(t, store.SaveUser(ctx, u))

	got, err := store.UserByID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sprinter", got.Nickname)
}

func TestStore_RefreshTokenRoundTrip(t *testing.T) {
	// GIVEN: A persisted refresh token
	// WHEN: Looking it up by value
	// THEN: The record round-trips; unknown tokens return (nil, nil)

	store := newTestStore(t)
	ctx := context.Background()

	tok := auth.RefreshToken{
		Token:     "refresh-abc",
		UserID:    "u-1",
		ExpiresAt: noon.AddDate(0, 0, 7),
		CreatedAt: noon,
	}
	require.NoError(t, store.SaveRefreshToken(ctx, tok))

	got, err := store.RefreshTokenByValue(ctx, "refresh-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(tok.ExpiresAt))

	missing, err := store.RefreshTokenByValue(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
