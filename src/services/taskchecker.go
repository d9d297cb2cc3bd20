package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

// TaskChecker periodically scans for tasks that are due soon or overdue and
// emits notifications. The de-duplication key keeps hourly re-runs from
// flooding the inbox.
type TaskChecker struct {
	tasks    store.Tasks
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewTaskChecker(tasks store.Tasks, notifier *Notifier, log *zap.Logger) *TaskChecker {
	return &TaskChecker{
		tasks:    tasks,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Start runs the checks immediately and then on every tick until ctx ends.
func (tc *TaskChecker) Start(ctx context.Context, interval time.Duration) {
	go func() {
		tc.Run(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				tc.log.Info("task checker stopped")
				return
			case <-ticker.C:
				tc.Run(ctx)
			}
		}
	}()
}

// Run executes a single due-soon + overdue pass.
func (tc *TaskChecker) Run(ctx context.Context) {
	tc.checkDueSoon(ctx)
	tc.checkOverdue(ctx)
}

func (tc *TaskChecker) checkDueSoon(ctx context.Context) {
	now := tc.now().UTC()
	tasks, err := tc.tasks.PendingDueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		tc.log.Error("due-soon scan failed", zap.Error(err))
		return
	}

	for _, task := range tasks {
		err := tc.notifier.Notify(ctx, NotificationInput{
			UserID:      task.AssignedTo,
			Type:        models.NotificationTaskDueSoon,
			Title:       "Task Due Soon",
			Message:     fmt.Sprintf("%q is due in less than 24 hours", task.Title),
			RelatedID:   task.Id,
			RelatedType: models.RelatedTask,
			Priority:    models.PriorityHigh,
		})
		if err != nil {
			tc.log.Warn("due-soon notification failed", zap.Error(err))
		}
	}

	tc.log.Info("checked tasks due soon", zap.Int("count", len(tasks)))
}

func (tc *TaskChecker) checkOverdue(ctx context.Context) {
	tasks, err := tc.tasks.PendingOverdue(ctx, tc.now().UTC())
	if err != nil {
		tc.log.Error("overdue scan failed", zap.Error(err))
		return
	}

	for _, task := range tasks {
		err := tc.notifier.Notify(ctx, NotificationInput{
			UserID:      task.AssignedTo,
			Type:        models.NotificationTaskOverdue,
			Title:       "Task Overdue",
			Message:     fmt.Sprintf("%q is overdue!", task.Title),
			RelatedID:   task.Id,
			RelatedType: models.RelatedTask,
			Priority:    models.PriorityHigh,
		})
		if err != nil {
			tc.log.Warn("overdue notification failed", zap.Error(err))
		}

		// self-created tasks only need the one notice
		if task.AssignedBy != task.AssignedTo {
			err := tc.notifier.Notify(ctx, NotificationInput{
				UserID:      task.AssignedBy,
				Type:        models.NotificationTaskOverdue,
				Title:       "Student Task Overdue",
				Message:     fmt.Sprintf("A student's task %q is overdue", task.Title),
				RelatedID:   task.Id,
				RelatedType: models.RelatedTask,
				Priority:    models.PriorityMedium,
			})
			if err != nil {
				tc.log.Warn("overdue teacher notification failed", zap.Error(err))
			}
		}
	}

	tc.log.Info("checked overdue tasks", zap.Int("count", len(tasks)))
}
