package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// GetTeacherProfile returns the caller's teacher profile with the connected
// students populated
func GetTeacherProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var profile models.TeacherProfile
	err := lib.DB.Collection("teacherprofiles").FindOne(c.Context(), bson.M{"userId": user.Id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Teacher profile not found"))
		}
		log.Error("teacher profile lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	students, err := loadUserDtos(c.Context(), profile.ConnectedStudents)
	if err != nil {
		log.Error("student population failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{
		"profile":  profile,
		"students": students,
	})
}

// RegenerateTeacherCode replaces the join code; the old one stops working
// immediately
func RegenerateTeacherCode(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	teacherColl := lib.DB.Collection("teacherprofiles")
	code, err := lib.GenerateUniqueCode(c.Context(), func(ctx context.Context, candidate string) (bool, error) {
		n, err := teacherColl.CountDocuments(ctx, bson.M{"code": candidate})
		return n > 0, err
	})
	if err != nil {
		log.Error("code regeneration failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	res, err := teacherColl.UpdateOne(c.Context(), bson.M{"userId": user.Id}, bson.M{"$set": bson.M{"code": code}})
	if err != nil {
		log.Error("code update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.MatchedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Teacher profile not found"))
	}

	return c.JSON(fiber.Map{"code": code})
}

// GetMyStudents lists the teacher's connected students with their streak
// counters, for the dashboard roster
func GetMyStudents(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var profile models.TeacherProfile
	err := lib.DB.Collection("teacherprofiles").FindOne(c.Context(), bson.M{"userId": user.Id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Teacher profile not found"))
		}
		log.Error("teacher profile lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	type studentEntry struct {
		Student models.UserDto      `json:"student"`
		Streak  *models.StudyStreak `json:"streak,omitempty"`
	}
	entries := []studentEntry{}

	students, err := loadUserDtos(c.Context(), profile.ConnectedStudents)
	if err != nil {
		log.Error("student population failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	streaksColl := lib.DB.Collection("studystreaks")
	for _, s := range students {
		entry := studentEntry{Student: s}
		var streak models.StudyStreak
		if err := streaksColl.FindOne(c.Context(), bson.M{"userId": s.ID}).Decode(&streak); err == nil {
			entry.Streak = &streak
		}
		entries = append(entries, entry)
	}

	return c.JSON(fiber.Map{"students": entries})
}

// loadUserDtos fetches the public projection for a set of user ids
func loadUserDtos(ctx context.Context, ids []primitive.ObjectID) ([]models.UserDto, error) {
	dtos := []models.UserDto{}
	if len(ids) == 0 {
		return dtos, nil
	}

	cursor, err := lib.DB.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		dtos = append(dtos, u.Dto())
	}
	return dtos, nil
}
