package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

type Task struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Priority    string             `json:"priority" bson:"priority"` // low, medium, high
	Status      TaskStatus         `json:"status" bson:"status"`
	AssignedBy  primitive.ObjectID `json:"assignedBy" bson:"assignedBy"`
	AssignedTo  primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

type TaskDto struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	Priority    string             `json:"priority"`
	Status      TaskStatus         `json:"status"`
	AssignedBy  *UserDto           `json:"assignedBy,omitempty"`
	AssignedTo  *UserDto           `json:"assignedTo,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}
