package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// SearchStudents lets a teacher find students by name or email.
// Query: q, page, limit
func SearchStudents(c *fiber.Ctx) error {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := bson.M{"role": models.RoleStudent}
	if q != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": q, "$options": "i"}},
			{"email": bson.M{"$regex": q, "$options": "i"}},
		}
	}

	coll := lib.DB.Collection("users")
	total, err := coll.CountDocuments(c.Context(), filter)
	if err != nil {
		log.Error("student search count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	opts := options.Find().
		SetSort(bson.M{"name": 1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := coll.Find(c.Context(), filter, opts)
	if err != nil {
		log.Error("student search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	var users []models.User
	if err := cursor.All(c.Context(), &users); err != nil {
		log.Error("student decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	students := []models.UserDto{}
	for _, u := range users {
		students = append(students, u.Dto())
	}

	return c.JSON(fiber.Map{
		"students": students,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

// GetMyTeachers lists the student's connected teachers
func GetMyTeachers(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var profile models.StudentProfile
	err := lib.DB.Collection("studentprofiles").FindOne(c.Context(), bson.M{"userId": user.Id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Student profile not found"))
		}
		log.Error("student profile lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	teachers, err := loadUserDtos(c.Context(), profile.ConnectedTeachers)
	if err != nil {
		log.Error("teacher population failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{"teachers": teachers})
}

// GetTeacherByCode previews who a join code belongs to, so the student can
// confirm before sending the request
func GetTeacherByCode(c *fiber.Ctx) error {
	code := c.Params("code")

	var profile models.TeacherProfile
	err := lib.DB.Collection("teacherprofiles").FindOne(c.Context(), bson.M{"code": code}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Teacher code not found"))
		}
		log.Error("code lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	var teacher models.User
	if err := lib.DB.Collection("users").FindOne(c.Context(), bson.M{"_id": profile.UserId}).Decode(&teacher); err != nil {
		log.Error("teacher lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{"teacher": teacher.Dto()})
}
