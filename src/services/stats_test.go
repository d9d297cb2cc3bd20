package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

func TestAggregateEmpty(t *testing.T) {
	stats := AggregateLogs(nil)

	assert.Equal(t, 0, stats.TotalDuration)
	assert.Equal(t, 0.0, stats.TotalHours)
	assert.Equal(t, 0, stats.TotalSessions)
	assert.Equal(t, 0, stats.AvgDuration)
	// empty collections, never nil, so the JSON shape stays stable
	require.NotNil(t, stats.ByDate)
	require.NotNil(t, stats.BySubject)
	require.NotNil(t, stats.Logs)
	assert.Empty(t, stats.ByDate)
	assert.Empty(t, stats.BySubject)
	assert.Empty(t, stats.Logs)
}

func TestComputeStatsBuckets(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	addSession(mem, userID, day(0), 60, "Math")
	addSession(mem, userID, day(0), 90, "")
	addSession(mem, userID, day(1), 30, "Math")

	stats, err := svc.ComputeStats(ctx, userID, day(0), day(1).Add(24*time.Hour-time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 180, stats.TotalDuration)
	assert.Equal(t, 3.0, stats.TotalHours)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 60, stats.AvgDuration)

	assert.Equal(t, StatBucket{Duration: 150, Sessions: 2}, stats.ByDate["2026-03-09"])
	assert.Equal(t, StatBucket{Duration: 30, Sessions: 1}, stats.ByDate["2026-03-10"])
	assert.Equal(t, StatBucket{Duration: 90, Sessions: 2}, stats.BySubject["Math"])
	assert.Equal(t, StatBucket{Duration: 90, Sessions: 1}, stats.BySubject["Unspecified"])
	assert.Len(t, stats.Logs, 3)
}

func TestComputeStatsWindowExcludesOutsideLogs(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	addSession(mem, userID, day(0), 60, "Math")
	addSession(mem, userID, day(5), 60, "Math")
	addSession(mem, other, day(0), 60, "Math")

	stats, err := svc.ComputeStats(ctx, userID, day(0), day(0).Add(24*time.Hour-time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 60, stats.TotalDuration)
}

func TestComputeStatsIdempotent(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	addSession(mem, userID, day(0), 45, "Biology")
	addSession(mem, userID, day(2), 75, "Biology")

	first, err := svc.ComputeStats(ctx, userID, day(0), day(3))
	require.NoError(t, err)
	second, err := svc.ComputeStats(ctx, userID, day(0), day(3))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvgDurationRounds(t *testing.T) {
	logs := []models.StudyLog{
		{Duration: 50, Date: day(0)},
		{Duration: 51, Date: day(0)},
	}
	stats := AggregateLogs(logs)
	assert.Equal(t, 51, stats.AvgDuration)
}

func TestRangeBounds(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2026, time.March, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	start, end := RangeBounds("day", now)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, wantEnd, end)

	start, _ = RangeBounds("week", now)
	assert.Equal(t, time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC), start)

	start, _ = RangeBounds("month", now)
	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), start)

	start, _ = RangeBounds("year", now)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), start)

	// anything unrecognized falls back to a week
	start, end = RangeBounds("", now)
	assert.Equal(t, time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, wantEnd, end)
}

func TestDayHelpers(t *testing.T) {
	evening := time.Date(2026, time.March, 9, 23, 45, 12, 0, time.UTC)
	assert.Equal(t, day(0), TruncateToUTCDay(evening))
	assert.Equal(t, day(0), TodayUTC(evening))
	assert.Equal(t, day(-1), YesterdayUTC(evening))

	// eastern-hemisphere local time already past midnight still lands on the UTC day
	tokyo := time.FixedZone("UTC+9", 9*3600)
	lateNight := time.Date(2026, time.March, 10, 3, 0, 0, 0, tokyo)
	assert.Equal(t, day(0), TruncateToUTCDay(lateNight))
}
