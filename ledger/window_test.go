package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoin/reward-engine/ledger"
)

func TestWindowResolver_UTC(t *testing.T) {
	// GIVEN: A resolver in UTC
	// WHEN: Resolving the day for an afternoon instant
	// THEN: The window spans midnight to midnight UTC

	resolver := ledger.NewWindowResolver(time.UTC)
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

	w := resolver.DayOf(now)

	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), w.End)
}

func TestWindowResolver_TimezoneShiftsDayBoundary(t *testing.T) {
	// GIVEN: A resolver in Asia/Seoul (UTC+9)
	// WHEN: Resolving the day for 20:00 UTC on March 10
	// THEN: The instant already belongs to March 11 in Seoul

	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	resolver := ledger.NewWindowResolver(seoul)
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)

	w := resolver.DayOf(now)

	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, seoul), w.Start)
	assert.True(t, w.Contains(now))
}

func TestWindow_HalfOpenBoundaries(t *testing.T) {
	// GIVEN: A resolved day window
	// WHEN: Checking instants at the boundaries
	// THEN: The start is included and the end is excluded

	resolver := ledger.NewWindowResolver(time.UTC)
	w := resolver.DayOf(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))

	assert.True(t, w.Contains(w.Start), "start of day belongs to the day")
	assert.False(t, w.Contains(w.End), "next midnight belongs to the next day")
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
}

func TestWindowResolver_NilLocationDefaultsToUTC(t *testing.T) {
	// GIVEN: A resolver constructed with a nil location
	// WHEN: Resolving a day
	// THEN: UTC is used

	resolver := ledger.NewWindowResolver(nil)
	w := resolver.DayOf(time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), w.Start)
}
