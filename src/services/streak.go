package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

// StreakService turns raw study logs into continuity counters and aggregated
// statistics. All day arithmetic is midnight-UTC.
type StreakService struct {
	logs     store.StudyLogs
	streaks  store.Streaks
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewStreakService(logs store.StudyLogs, streaks store.Streaks, notifier *Notifier, log *zap.Logger) *StreakService {
	return &StreakService{
		logs:     logs,
		streaks:  streaks,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		locks:    make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// lockFor serializes streak updates per user; two session stops racing on the
// same user would otherwise lose one read-modify-write.
func (s *StreakService) lockFor(userID primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// RecordSession updates the user's streak after a StudyLog has been
// persisted. The advancement check is independent of the just-created log: a
// backdated manual entry neither advances nor decrements today's streak.
func (s *StreakService) RecordSession(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.update(ctx, userID)
}

// Reconcile re-evaluates a user's streak with no new log, zeroing the counter
// once more than a day has passed since the last study date. Intended for
// periodic jobs and the streak readout.
func (s *StreakService) Reconcile(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.update(ctx, userID)
}

func (s *StreakService) update(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	streak, err := s.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := TodayUTC(s.now())
	yesterday := today.AddDate(0, 0, -1)

	studiedToday, err := s.logs.HasLogOnDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	studiedYesterday, err := s.logs.HasLogOnDay(ctx, userID, yesterday)
	if err != nil {
		return nil, err
	}

	if studiedToday {
		switch {
		case streak.LastStudyDate == nil:
			// first ever log
			streak.CurrentStreak = 1
		case studiedYesterday:
			streak.CurrentStreak++
		default:
			if daysBetween(TruncateToUTCDay(*streak.LastStudyDate), today) == 1 {
				streak.CurrentStreak++
			} else {
				streak.CurrentStreak = 1
			}
		}

		streak.LastStudyDate = &today
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
	} else if streak.LastStudyDate != nil {
		// reconcile path: the streak is broken once a full day has been
		// skipped. LongestStreak is never decreased.
		if daysBetween(TruncateToUTCDay(*streak.LastStudyDate), today) > 1 {
			streak.CurrentStreak = 0
		}
	}

	// totals are recomputed from scratch; re-running this on retry is safe
	minutes, sessions, err := s.logs.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak.TotalHours = roundHours(minutes)
	streak.TotalSessions = sessions

	if err := s.streaks.Save(ctx, streak); err != nil {
		return nil, err
	}

	if streak.CurrentStreak > 0 && streak.CurrentStreak%7 == 0 {
		s.notifyMilestone(ctx, streak)
	}

	return streak, nil
}

func (s *StreakService) notifyMilestone(ctx context.Context, streak *models.StudyStreak) {
	// keyed on the streak document so repeated stops on the same day refresh
	// the unread notice instead of stacking duplicates
	err := s.notifier.Notify(ctx, NotificationInput{
		UserID:      streak.UserId,
		Type:        models.NotificationAchievement,
		Title:       fmt.Sprintf("%d-Day Streak!", streak.CurrentStreak),
		Message:     fmt.Sprintf("Amazing! You've maintained a %d-day study streak!", streak.CurrentStreak),
		RelatedID:   streak.Id,
		RelatedType: models.RelatedStreak,
		Priority:    models.PriorityHigh,
	})
	if err != nil {
		s.log.Warn("milestone notification failed", zap.Error(err))
	}
}

// HasStudiedToday reports whether the user already has a log on the canonical
// UTC today.
func (s *StreakService) HasStudiedToday(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	return s.logs.HasLogOnDay(ctx, userID, TodayUTC(s.now()))
}

// Get returns the user's streak record, lazily creating an all-zero one.
func (s *StreakService) Get(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	return s.streaks.GetOrCreate(ctx, userID)
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
