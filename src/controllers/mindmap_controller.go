package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

type mindMapBody struct {
	Title string               `json:"title" validate:"required,min=1,max=200"`
	Nodes []models.MindMapNode `json:"nodes" validate:"max=500"`
}

// CreateMindMap saves a new mind map for the caller
func CreateMindMap(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body mindMapBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	now := time.Now().UTC()
	mindMap := models.MindMap{
		Id:        primitive.NewObjectID(),
		UserId:    user.Id,
		Title:     body.Title,
		Nodes:     body.Nodes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mindMap.Nodes == nil {
		mindMap.Nodes = []models.MindMapNode{}
	}

	if _, err := lib.DB.Collection("mindmaps").InsertOne(c.Context(), mindMap); err != nil {
		log.Error("mind map insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"mindMap": mindMap})
}

// GetMindMaps lists the caller's mind maps, most recently edited first
func GetMindMaps(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	cursor, err := lib.DB.Collection("mindmaps").Find(c.Context(), bson.M{"userId": user.Id}, opts)
	if err != nil {
		log.Error("mind map query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	mindMaps := []models.MindMap{}
	if err := cursor.All(c.Context(), &mindMaps); err != nil {
		log.Error("mind map decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(fiber.Map{"mindMaps": mindMaps})
}

// UpdateMindMap replaces the title and node layout of one of the caller's maps
func UpdateMindMap(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	mapID, err := primitive.ObjectIDFromHex(c.Params("mindMapId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid mind map ID format"))
	}

	var body mindMapBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}
	if body.Nodes == nil {
		body.Nodes = []models.MindMapNode{}
	}

	res, err := lib.DB.Collection("mindmaps").UpdateOne(
		c.Context(),
		bson.M{"_id": mapID, "userId": user.Id},
		bson.M{"$set": bson.M{
			"title":     body.Title,
			"nodes":     body.Nodes,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		log.Error("mind map update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.MatchedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Mind map not found"))
	}
	return c.JSON(lib.MessageResponse("Mind map updated"))
}

// DeleteMindMap removes one of the caller's maps
func DeleteMindMap(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	mapID, err := primitive.ObjectIDFromHex(c.Params("mindMapId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid mind map ID format"))
	}

	res, err := lib.DB.Collection("mindmaps").DeleteOne(c.Context(), bson.M{"_id": mapID, "userId": user.Id})
	if err != nil {
		log.Error("mind map delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.DeletedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Mind map not found"))
	}
	return c.JSON(lib.MessageResponse("Mind map deleted"))
}
