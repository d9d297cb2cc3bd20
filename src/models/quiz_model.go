package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuizQuestion struct {
	Prompt       string   `json:"prompt" bson:"prompt"`
	Options      []string `json:"options" bson:"options"`
	CorrectIndex int      `json:"correctIndex" bson:"correctIndex"`
}

type QuizAttempt struct {
	Student        primitive.ObjectID `json:"student" bson:"student"`
	Answers        []int              `json:"answers" bson:"answers"`
	CorrectCount   int                `json:"correctCount" bson:"correctCount"`
	TotalQuestions int                `json:"totalQuestions" bson:"totalQuestions"`
	Score          int                `json:"score" bson:"score"` // percentage
	TimeTakenSec   int                `json:"timeTakenSec" bson:"timeTakenSec"`
	SubmittedAt    time.Time          `json:"submittedAt" bson:"submittedAt"`
}

type Quiz struct {
	Id               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title            string               `json:"title" bson:"title"`
	Description      string               `json:"description,omitempty" bson:"description,omitempty"`
	TimeLimitSeconds int                  `json:"timeLimitSeconds" bson:"timeLimitSeconds"`
	Questions        []QuizQuestion       `json:"questions" bson:"questions"`
	AssignedTo       []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedBy        primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	Attempts         []QuizAttempt        `json:"attempts" bson:"attempts"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
}
