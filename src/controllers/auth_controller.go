package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates the account plus its role profile. Teachers get a join
// code students can type in instead of an id.
func Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	usersColl := lib.DB.Collection("users")

	// Verificar que el email no esté registrado
	var existing models.User
	err := usersColl.FindOne(c.Context(), bson.M{"email": email}).Decode(&existing)
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(lib.MessageResponse("Email already registered"))
	}
	if err != mongo.ErrNoDocuments {
		log.Error("register lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	user := models.User{
		Id:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  string(hashed),
		Role:      models.UserRole(req.Role),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := usersColl.InsertOne(c.Context(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.Status(fiber.StatusConflict).JSON(lib.MessageResponse("Email already registered"))
		}
		log.Error("register insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	code := ""
	switch user.Role {
	case models.RoleTeacher:
		teacherColl := lib.DB.Collection("teacherprofiles")
		code, err = lib.GenerateUniqueCode(c.Context(), func(ctx context.Context, candidate string) (bool, error) {
			n, err := teacherColl.CountDocuments(ctx, bson.M{"code": candidate})
			return n > 0, err
		})
		if err != nil {
			log.Error("teacher code generation failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}
		_, err = teacherColl.InsertOne(c.Context(), models.TeacherProfile{
			Id:                primitive.NewObjectID(),
			UserId:            user.Id,
			Code:              code,
			ConnectedStudents: []primitive.ObjectID{},
			AssignedTasks:     []primitive.ObjectID{},
		})
		if err != nil {
			log.Error("teacher profile bootstrap failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}
	case models.RoleStudent:
		_, err = lib.DB.Collection("studentprofiles").InsertOne(c.Context(), models.StudentProfile{
			Id:                primitive.NewObjectID(),
			UserId:            user.Id,
			ConnectedTeachers: []primitive.ObjectID{},
			SelfTasks:         []primitive.ObjectID{},
		})
		if err != nil {
			log.Error("student profile bootstrap failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}
	}

	token, err := lib.GenerateJWT(user.Id.Hex(), user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	setAuthCookie(c, token)

	body := fiber.Map{"user": user.Dto(), "token": token}
	if code != "" {
		body["teacherCode"] = code
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// Login authenticates by email + password
func Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	var user models.User
	err := lib.DB.Collection("users").FindOne(c.Context(), bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Invalid email or password"))
		}
		log.Error("login lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Invalid email or password"))
	}

	token, err := lib.GenerateJWT(user.Id.Hex(), user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	setAuthCookie(c, token)

	return c.JSON(fiber.Map{"user": user.Dto(), "token": token})
}

// Logout clears the auth cookie
func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(lib.MessageResponse("Logged out"))
}

// Me returns the authenticated account with its role profile attached
func Me(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)
	body := fiber.Map{"user": user.Dto()}

	switch user.Role {
	case models.RoleTeacher:
		var profile models.TeacherProfile
		if err := lib.DB.Collection("teacherprofiles").FindOne(c.Context(), bson.M{"userId": user.Id}).Decode(&profile); err == nil {
			body["profile"] = profile
		}
	case models.RoleStudent:
		var profile models.StudentProfile
		if err := lib.DB.Collection("studentprofiles").FindOne(c.Context(), bson.M{"userId": user.Id}).Decode(&profile); err == nil {
			body["profile"] = profile
		}
	}
	return c.JSON(body)
}

func setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
