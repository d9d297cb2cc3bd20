package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTaskAssigned       NotificationType = "task_assigned"
	NotificationTaskDueSoon        NotificationType = "task_due_soon"
	NotificationTaskOverdue        NotificationType = "task_overdue"
	NotificationTaskCompleted      NotificationType = "task_completed"
	NotificationConnectionRequest  NotificationType = "connection_request"
	NotificationConnectionAccepted NotificationType = "connection_accepted"
	NotificationStudentJoined      NotificationType = "student_joined"
	NotificationAchievement        NotificationType = "achievement"
)

type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityMedium NotificationPriority = "medium"
	PriorityLow    NotificationPriority = "low"
)

type RelatedType string

const (
	RelatedTask       RelatedType = "task"
	RelatedConnection RelatedType = "connection"
	RelatedUser       RelatedType = "user"
	RelatedStreak     RelatedType = "streak"
)

type Notification struct {
	Id          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserId      primitive.ObjectID   `json:"userId" bson:"userId"`
	Type        NotificationType     `json:"type" bson:"type"`
	Title       string               `json:"title" bson:"title"`
	Message     string               `json:"message" bson:"message"`
	RelatedId   primitive.ObjectID   `json:"relatedId,omitempty" bson:"relatedId,omitempty"`
	RelatedType RelatedType          `json:"relatedType,omitempty" bson:"relatedType,omitempty"`
	IsRead      bool                 `json:"isRead" bson:"isRead"`
	Priority    NotificationPriority `json:"priority" bson:"priority"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
}
