package services

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

type StatBucket struct {
	Duration int `json:"duration"` // minutes
	Sessions int `json:"sessions"`
}

type StudyStats struct {
	TotalDuration int                   `json:"totalDuration"` // minutes
	TotalHours    float64               `json:"totalHours"`
	TotalSessions int                   `json:"totalSessions"`
	AvgDuration   int                   `json:"avgDuration"` // minutes
	ByDate        map[string]StatBucket `json:"byDate"`
	BySubject     map[string]StatBucket `json:"bySubject"`
	Logs          []models.StudyLog     `json:"logs"`
}

// subject bucket for logs with no subject
const unspecifiedSubject = "Unspecified"

// ComputeStats aggregates the user's logs with date inside [start, end]
// inclusive. Pure: same inputs, same outputs, no side effects.
func (s *StreakService) ComputeStats(ctx context.Context, userID primitive.ObjectID, start, end time.Time) (*StudyStats, error) {
	logs, err := s.logs.InRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return AggregateLogs(logs), nil
}

// AggregateLogs folds a log list into the stats shape. Grouping keys on the
// log's date field, never on startTime.
func AggregateLogs(logs []models.StudyLog) *StudyStats {
	stats := &StudyStats{
		ByDate:    make(map[string]StatBucket),
		BySubject: make(map[string]StatBucket),
		Logs:      logs,
	}
	if stats.Logs == nil {
		stats.Logs = []models.StudyLog{}
	}

	for _, log := range logs {
		stats.TotalDuration += log.Duration
		stats.TotalSessions++

		dateKey := log.Date.UTC().Format("2006-01-02")
		byDate := stats.ByDate[dateKey]
		byDate.Duration += log.Duration
		byDate.Sessions++
		stats.ByDate[dateKey] = byDate

		subject := log.Subject
		if subject == "" {
			subject = unspecifiedSubject
		}
		bySubject := stats.BySubject[subject]
		bySubject.Duration += log.Duration
		bySubject.Sessions++
		stats.BySubject[subject] = bySubject
	}

	if stats.TotalSessions > 0 {
		stats.AvgDuration = int(math.Round(float64(stats.TotalDuration) / float64(stats.TotalSessions)))
	}
	stats.TotalHours = roundHours(stats.TotalDuration)

	return stats
}
