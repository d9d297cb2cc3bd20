package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// Actor is the authenticated caller every core operation branches on,
// instead of re-checking a raw role string per handler.
type Actor struct {
	ID   primitive.ObjectID
	Role models.UserRole
}

func Teacher(id primitive.ObjectID) Actor {
	return Actor{ID: id, Role: models.RoleTeacher}
}

func Student(id primitive.ObjectID) Actor {
	return Actor{ID: id, Role: models.RoleStudent}
}

func ActorFromUser(u models.User) Actor {
	return Actor{ID: u.Id, Role: u.Role}
}
