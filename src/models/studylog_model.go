package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudyLog is one recorded study session. Date is the session's calendar day
// truncated to midnight UTC and is the only field grouping/streak logic keys
// on; StartTime keeps the exact clock time for display.
type StudyLog struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserId    primitive.ObjectID `json:"userId" bson:"userId"`
	Subject   string             `json:"subject,omitempty" bson:"subject,omitempty"`
	Duration  int                `json:"duration" bson:"duration"` // minutes
	StartTime time.Time          `json:"startTime" bson:"startTime"`
	EndTime   time.Time          `json:"endTime" bson:"endTime"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Date      time.Time          `json:"date" bson:"date"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
