package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

var streakDay0 = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return streakDay0.AddDate(0, 0, n) }

// afternoonOf pins the service clock to mid-afternoon on the given day.
func afternoonOf(d time.Time) func() time.Time {
	return func() time.Time { return d.Add(15 * time.Hour) }
}

func newStreakFixture(t *testing.T) (*store.Memory, *StreakService) {
	t.Helper()
	mem := store.NewMemory()
	log := zap.NewNop()
	svc := NewStreakService(mem.StudyLogs, mem.Streaks, NewNotifier(mem.Notifications, log), log)
	return mem, svc
}

func addSession(mem *store.Memory, userID primitive.ObjectID, d time.Time, minutes int, subject string) {
	start := d.Add(9 * time.Hour)
	mem.AddLog(models.StudyLog{
		UserId:    userID,
		Subject:   subject,
		Duration:  minutes,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		Date:      d,
		CreatedAt: start,
	})
}

func TestFirstSessionStartsStreak(t *testing.T) {
	mem, svc := newStreakFixture(t)
	userID := primitive.NewObjectID()

	addSession(mem, userID, day(0), 30, "Math")
	svc.now = afternoonOf(day(0))

	streak, err := svc.RecordSession(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.LongestStreak)
	require.NotNil(t, streak.LastStudyDate)
	assert.Equal(t, day(0), *streak.LastStudyDate)
	assert.Equal(t, 1, streak.TotalSessions)
	assert.Equal(t, 0.5, streak.TotalHours)
}

func TestConsecutiveDaysThenGapResets(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	var streak *models.StudyStreak
	var err error
	for i := 0; i < 3; i++ {
		addSession(mem, userID, day(i), 60, "History")
		svc.now = afternoonOf(day(i))
		streak, err = svc.RecordSession(ctx, userID)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak)

	// day 3 skipped entirely
	addSession(mem, userID, day(4), 60, "History")
	svc.now = afternoonOf(day(4))
	streak, err = svc.RecordSession(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak)
	assert.Equal(t, day(4), *streak.LastStudyDate)
}

func TestRepeatSessionSameDayKeepsCount(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	addSession(mem, userID, day(0), 25, "")
	svc.now = afternoonOf(day(0))
	_, err := svc.RecordSession(ctx, userID)
	require.NoError(t, err)

	addSession(mem, userID, day(0), 35, "")
	streak, err := svc.RecordSession(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 2, streak.TotalSessions)
	assert.Equal(t, 1.0, streak.TotalHours)
}

func TestBackdatedLogDoesNotAdvance(t *testing.T) {
	mem, svc := newStreakFixture(t)
	userID := primitive.NewObjectID()

	// a manual entry dated a week ago, recorded today
	addSession(mem, userID, day(3), 45, "Physics")
	svc.now = afternoonOf(day(10))

	streak, err := svc.RecordSession(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Nil(t, streak.LastStudyDate)
	// totals still count the entry
	assert.Equal(t, 1, streak.TotalSessions)
	assert.Equal(t, 0.75, streak.TotalHours)
}

func TestReconcileZeroesAfterGap(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	for i := 0; i < 2; i++ {
		addSession(mem, userID, day(i), 60, "")
		svc.now = afternoonOf(day(i))
		_, err := svc.RecordSession(ctx, userID)
		require.NoError(t, err)
	}

	// within one day the streak survives
	svc.now = afternoonOf(day(2))
	streak, err := svc.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)

	// past that it is gone, longest untouched
	svc.now = afternoonOf(day(3))
	streak, err = svc.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
	require.NotNil(t, streak.LastStudyDate)
	assert.Equal(t, day(1), *streak.LastStudyDate)
}

func TestMilestoneNotification(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	for i := 0; i < 7; i++ {
		addSession(mem, userID, day(i), 30, "")
		svc.now = afternoonOf(day(i))
		_, err := svc.RecordSession(ctx, userID)
		require.NoError(t, err)
	}

	var achievements []models.Notification
	for _, n := range mem.NotificationsFor(userID) {
		if n.Type == models.NotificationAchievement {
			achievements = append(achievements, n)
		}
	}
	require.Len(t, achievements, 1)
	assert.Equal(t, "7-Day Streak!", achievements[0].Title)
	assert.Equal(t, models.PriorityHigh, achievements[0].Priority)
	assert.Equal(t, models.RelatedStreak, achievements[0].RelatedType)
}

func TestHasStudiedToday(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()
	svc.now = afternoonOf(day(1))

	studied, err := svc.HasStudiedToday(ctx, userID)
	require.NoError(t, err)
	assert.False(t, studied)

	addSession(mem, userID, day(1), 20, "")
	studied, err = svc.HasStudiedToday(ctx, userID)
	require.NoError(t, err)
	assert.True(t, studied)
}

func TestGetCreatesEmptyStreak(t *testing.T) {
	_, svc := newStreakFixture(t)
	userID := primitive.NewObjectID()

	streak, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, streak.UserId)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Nil(t, streak.LastStudyDate)
}

func TestConcurrentRecordsDoNotCorrupt(t *testing.T) {
	mem, svc := newStreakFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	addSession(mem, userID, day(0), 10, "")
	svc.now = afternoonOf(day(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSession(ctx, userID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	streak, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.TotalSessions)
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 0.0, roundHours(0))
	assert.Equal(t, 2.5, roundHours(150))
	assert.Equal(t, 1.67, roundHours(100))
	assert.Equal(t, 0.17, roundHours(10))
}
