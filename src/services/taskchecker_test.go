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

func newCheckerFixture(t *testing.T, now time.Time) (*store.Memory, *TaskChecker) {
	t.Helper()
	mem := store.NewMemory()
	log := zap.NewNop()
	tc := NewTaskChecker(mem.Tasks, NewNotifier(mem.Notifications, log), log)
	tc.now = func() time.Time { return now }
	return mem, tc
}

func seedTask(mem *store.Memory, title string, due time.Time, status models.TaskStatus, by, to primitive.ObjectID) {
	mem.AddTask(models.Task{
		Id:         primitive.NewObjectID(),
		Title:      title,
		DueDate:    &due,
		Priority:   "medium",
		Status:     status,
		AssignedBy: by,
		AssignedTo: to,
	})
}

func TestCheckerFlagsDueSoonAndOverdue(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	mem, tc := newCheckerFixture(t, now)

	teacher := primitive.NewObjectID()
	student := primitive.NewObjectID()

	seedTask(mem, "Read chapter 4", now.Add(2*time.Hour), models.TaskStatusPending, student, student)
	seedTask(mem, "Essay draft", now.Add(48*time.Hour), models.TaskStatusPending, student, student)
	seedTask(mem, "Algebra worksheet", now.Add(-3*time.Hour), models.TaskStatusPending, teacher, student)
	seedTask(mem, "Old quiz", now.Add(-24*time.Hour), models.TaskStatusCompleted, teacher, student)

	tc.Run(context.Background())

	var dueSoon, overdue int
	for _, n := range mem.NotificationsFor(student) {
		switch n.Type {
		case models.NotificationTaskDueSoon:
			dueSoon++
			assert.Contains(t, n.Message, "Read chapter 4")
			assert.Equal(t, models.PriorityHigh, n.Priority)
		case models.NotificationTaskOverdue:
			overdue++
			assert.Contains(t, n.Message, "Algebra worksheet")
		}
	}
	assert.Equal(t, 1, dueSoon)
	assert.Equal(t, 1, overdue)

	// the assigning teacher hears about the overdue task too
	teacherNotices := mem.NotificationsFor(teacher)
	require.Len(t, teacherNotices, 1)
	assert.Equal(t, models.NotificationTaskOverdue, teacherNotices[0].Type)
	assert.Equal(t, "Student Task Overdue", teacherNotices[0].Title)
}

func TestCheckerSkipsTeacherNoticeForSelfTasks(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	mem, tc := newCheckerFixture(t, now)

	student := primitive.NewObjectID()
	seedTask(mem, "Flashcards", now.Add(-time.Hour), models.TaskStatusPending, student, student)

	tc.Run(context.Background())

	notices := mem.NotificationsFor(student)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NotificationTaskOverdue, notices[0].Type)
}

func TestCheckerRerunDoesNotDuplicate(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	mem, tc := newCheckerFixture(t, now)

	teacher := primitive.NewObjectID()
	student := primitive.NewObjectID()
	seedTask(mem, "Lab report", now.Add(-time.Hour), models.TaskStatusPending, teacher, student)
	seedTask(mem, "Vocab list", now.Add(3*time.Hour), models.TaskStatusPending, student, student)

	ctx := context.Background()
	tc.Run(ctx)
	tc.Run(ctx)
	tc.Run(ctx)

	assert.Len(t, mem.NotificationsFor(student), 2)
	assert.Len(t, mem.NotificationsFor(teacher), 1)
}
