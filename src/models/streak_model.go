package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudyStreak is the per-user continuity counter. One document per user,
// mutated only by the streak engine. LongestStreak >= CurrentStreak always.
type StudyStreak struct {
	Id            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserId        primitive.ObjectID `json:"userId" bson:"userId"`
	CurrentStreak int                `json:"currentStreak" bson:"currentStreak"`
	LongestStreak int                `json:"longestStreak" bson:"longestStreak"`
	LastStudyDate *time.Time         `json:"lastStudyDate,omitempty" bson:"lastStudyDate,omitempty"`
	TotalHours    float64            `json:"totalHours" bson:"totalHours"`
	TotalSessions int                `json:"totalSessions" bson:"totalSessions"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}
