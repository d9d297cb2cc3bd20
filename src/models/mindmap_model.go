package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MindMapNode struct {
	Id       string  `json:"id" bson:"id"`
	Text     string  `json:"text" bson:"text"`
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	ParentId string  `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Color    string  `json:"color" bson:"color"`
}

type MindMap struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserId    primitive.ObjectID `json:"userId" bson:"userId"`
	Title     string             `json:"title" bson:"title"`
	Nodes     []MindMapNode      `json:"nodes" bson:"nodes"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
