package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Connection struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Teacher     primitive.ObjectID `json:"teacher" bson:"teacher"`
	Student     primitive.ObjectID `json:"student" bson:"student"`
	Status      ConnectionStatus   `json:"status" bson:"status"` // pending, accepted, rejected
	InitiatedBy UserRole           `json:"initiatedBy,omitempty" bson:"initiatedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// ConnectionDto carries the connection with both parties populated
type ConnectionDto struct {
	ID          primitive.ObjectID `json:"id"`
	Teacher     *UserDto           `json:"teacher,omitempty"`
	Student     *UserDto           `json:"student,omitempty"`
	Status      ConnectionStatus   `json:"status"`
	InitiatedBy UserRole           `json:"initiatedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
