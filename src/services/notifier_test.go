package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

func newNotifierFixture(t *testing.T) (*store.Memory, *Notifier) {
	t.Helper()
	mem := store.NewMemory()
	return mem, NewNotifier(mem.Notifications, zap.NewNop())
}

func TestNotifyDeduplicatesUnread(t *testing.T) {
	mem, n := newNotifierFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()

	in := NotificationInput{
		UserID:      userID,
		Type:        models.NotificationTaskDueSoon,
		Title:       "Task Due Soon",
		Message:     "first warning",
		RelatedID:   taskID,
		RelatedType: models.RelatedTask,
	}
	require.NoError(t, n.Notify(ctx, in))

	in.Message = "second warning"
	require.NoError(t, n.Notify(ctx, in))

	notices := mem.NotificationsFor(userID)
	require.Len(t, notices, 1)
	assert.Equal(t, "second warning", notices[0].Message)
	assert.False(t, notices[0].IsRead)
}

func TestNotifyReadNoticeIsNotRefreshed(t *testing.T) {
	mem, n := newNotifierFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()

	in := NotificationInput{
		UserID:    userID,
		Type:      models.NotificationTaskOverdue,
		Title:     "Task Overdue",
		Message:   "still overdue",
		RelatedID: taskID,
	}
	require.NoError(t, n.Notify(ctx, in))
	mem.MarkAllRead(userID)

	// a dismissed notice does not swallow the next occurrence
	require.NoError(t, n.Notify(ctx, in))
	assert.Len(t, mem.NotificationsFor(userID), 2)
}

func TestNotifyWithoutRelatedAlwaysInserts(t *testing.T) {
	mem, n := newNotifierFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	in := NotificationInput{UserID: userID, Type: models.NotificationStudentJoined, Title: "Welcome", Message: "hi"}
	require.NoError(t, n.Notify(ctx, in))
	require.NoError(t, n.Notify(ctx, in))

	assert.Len(t, mem.NotificationsFor(userID), 2)
}

func TestNotifyDefaultsPriority(t *testing.T) {
	mem, n := newNotifierFixture(t)
	userID := primitive.NewObjectID()

	require.NoError(t, n.Notify(context.Background(), NotificationInput{
		UserID: userID, Type: models.NotificationStudentJoined, Title: "Welcome",
	}))

	notices := mem.NotificationsFor(userID)
	require.Len(t, notices, 1)
	assert.Equal(t, models.PriorityMedium, notices[0].Priority)
}

func TestNotifyBulk(t *testing.T) {
	mem, n := newNotifierFixture(t)
	ctx := context.Background()
	users := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}

	require.NoError(t, n.NotifyBulk(ctx, nil, NotificationInput{Type: models.NotificationStudentJoined}))

	require.NoError(t, n.NotifyBulk(ctx, users, NotificationInput{
		Type:    models.NotificationStudentJoined,
		Title:   "New classmate",
		Message: "someone joined",
	}))
	for _, id := range users {
		assert.Len(t, mem.NotificationsFor(id), 1)
	}
}

func TestCleanupReadDropsOnlyOldReadNotices(t *testing.T) {
	mem, n := newNotifierFixture(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	oldRead := primitive.NewObjectID()
	oldUnread := primitive.NewObjectID()
	recentRead := primitive.NewObjectID()

	n.now = func() time.Time { return now.AddDate(0, -2, 0) }
	require.NoError(t, n.Notify(ctx, NotificationInput{UserID: oldRead, Type: models.NotificationStudentJoined, Title: "a"}))
	require.NoError(t, n.Notify(ctx, NotificationInput{UserID: oldUnread, Type: models.NotificationStudentJoined, Title: "b"}))
	mem.MarkAllRead(oldRead)

	n.now = func() time.Time { return now.Add(-time.Hour) }
	require.NoError(t, n.Notify(ctx, NotificationInput{UserID: recentRead, Type: models.NotificationStudentJoined, Title: "c"}))
	mem.MarkAllRead(recentRead)

	n.now = func() time.Time { return now }
	removed, err := n.CleanupRead(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	assert.Empty(t, mem.NotificationsFor(oldRead))
	assert.Len(t, mem.NotificationsFor(oldUnread), 1)
	assert.Len(t, mem.NotificationsFor(recentRead), 1)
}
