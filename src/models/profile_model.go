package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// TeacherProfile caches the accepted edges and assignment history for a
// teacher account. Code is the short join code students type in.
type TeacherProfile struct {
	Id                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserId            primitive.ObjectID   `json:"userId" bson:"userId"`
	Code              string               `json:"code,omitempty" bson:"code,omitempty"`
	ConnectedStudents []primitive.ObjectID `json:"connectedStudents" bson:"connectedStudents"`
	AssignedTasks     []primitive.ObjectID `json:"assignedTasks" bson:"assignedTasks"`
}

type StudentProfile struct {
	Id                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserId            primitive.ObjectID   `json:"userId" bson:"userId"`
	ConnectedTeachers []primitive.ObjectID `json:"connectedTeachers" bson:"connectedTeachers"`
	SelfTasks         []primitive.ObjectID `json:"selfTasks" bson:"selfTasks"`
}
