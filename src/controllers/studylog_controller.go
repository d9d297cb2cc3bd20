package controllers

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/services"
)

// activeSession is a timer the client started and has not stopped yet. It
// only becomes a StudyLog on stop.
type activeSession struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SessionId string             `json:"sessionId" bson:"sessionId"`
	UserId    primitive.ObjectID `json:"userId" bson:"userId"`
	Subject   string             `json:"subject,omitempty" bson:"subject,omitempty"`
	StartTime time.Time          `json:"startTime" bson:"startTime"`
}

type startSessionBody struct {
	Subject string `json:"subject" validate:"max=120"`
}

type stopSessionBody struct {
	SessionId string `json:"sessionId" validate:"required,uuid4"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type manualLogBody struct {
	Subject  string `json:"subject" validate:"max=120"`
	Duration int    `json:"duration" validate:"required,min=1,max=1440"`
	Date     string `json:"date" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// StartSession opens a study timer and hands back its token
func StartSession(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body startSessionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	session := activeSession{
		Id:        primitive.NewObjectID(),
		SessionId: uuid.NewString(),
		UserId:    user.Id,
		Subject:   body.Subject,
		StartTime: time.Now().UTC(),
	}
	if _, err := lib.DB.Collection("activesessions").InsertOne(c.Context(), session); err != nil {
		log.Error("session start failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

// StopSession closes the timer, persists the study log and runs the streak
// update. Responds with both so the client can refresh in one round trip.
func StopSession(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body stopSessionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	sessionsColl := lib.DB.Collection("activesessions")
	var session activeSession
	err := sessionsColl.FindOne(c.Context(), bson.M{"sessionId": body.SessionId, "userId": user.Id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Active session not found"))
		}
		log.Error("session lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	end := time.Now().UTC()
	minutes := int(math.Round(end.Sub(session.StartTime).Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	logEntry := models.StudyLog{
		Id:        primitive.NewObjectID(),
		UserId:    user.Id,
		Subject:   session.Subject,
		Duration:  minutes,
		StartTime: session.StartTime,
		EndTime:   end,
		Notes:     body.Notes,
		Date:      services.TruncateToUTCDay(session.StartTime),
		CreatedAt: end,
	}
	if _, err := lib.DB.Collection("studylogs").InsertOne(c.Context(), logEntry); err != nil {
		log.Error("study log insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	// el timer ya cumplió su función
	if _, err := sessionsColl.DeleteOne(c.Context(), bson.M{"_id": session.Id}); err != nil {
		log.Warn("stale session cleanup failed", zap.Error(err))
	}

	streak, err := streakService.RecordSession(c.Context(), user.Id)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"log": logEntry, "streak": streak})
}

// CreateManualLog records a session after the fact. The date may be in the
// past; backdated entries count towards totals but never advance the streak.
func CreateManualLog(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body manualLogBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	day, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("date must be YYYY-MM-DD"))
	}
	day = services.TruncateToUTCDay(day)
	if day.After(services.TodayUTC(time.Now())) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("date cannot be in the future"))
	}

	now := time.Now().UTC()
	logEntry := models.StudyLog{
		Id:        primitive.NewObjectID(),
		UserId:    user.Id,
		Subject:   body.Subject,
		Duration:  body.Duration,
		StartTime: day,
		EndTime:   day.Add(time.Duration(body.Duration) * time.Minute),
		Notes:     body.Notes,
		Date:      day,
		CreatedAt: now,
	}
	if _, err := lib.DB.Collection("studylogs").InsertOne(c.Context(), logEntry); err != nil {
		log.Error("manual log insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	streak, err := streakService.RecordSession(c.Context(), user.Id)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"log": logEntry, "streak": streak})
}

// GetLogs returns the caller's logs, newest first, paginated.
// Query: page, limit, subject, from, to (YYYY-MM-DD)
func GetLogs(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := bson.M{"userId": user.Id}
	if subject := c.Query("subject"); subject != "" {
		filter["subject"] = subject
	}
	dateFilter := bson.M{}
	if from := c.Query("from"); from != "" {
		if d, err := time.Parse("2006-01-02", from); err == nil {
			dateFilter["$gte"] = services.TruncateToUTCDay(d)
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := time.Parse("2006-01-02", to); err == nil {
			dateFilter["$lte"] = services.TruncateToUTCDay(d)
		}
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	coll := lib.DB.Collection("studylogs")
	total, err := coll.CountDocuments(c.Context(), filter)
	if err != nil {
		log.Error("log count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := coll.Find(c.Context(), filter, opts)
	if err != nil {
		log.Error("log query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	logs := []models.StudyLog{}
	if err := cursor.All(c.Context(), &logs); err != nil {
		log.Error("log decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// DeleteLog removes one of the caller's own logs, then refreshes the streak
// record so the totals match again
func DeleteLog(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	logID, err := primitive.ObjectIDFromHex(c.Params("logId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid log ID format"))
	}

	res, err := lib.DB.Collection("studylogs").DeleteOne(c.Context(), bson.M{"_id": logID, "userId": user.Id})
	if err != nil {
		log.Error("log delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.DeletedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Study log not found"))
	}

	if _, err := streakService.Reconcile(c.Context(), user.Id); err != nil {
		log.Warn("streak refresh after delete failed", zap.Error(err))
	}

	return c.JSON(lib.MessageResponse("Study log deleted"))
}

// GetStreak returns the streak record, reconciled against the calendar.
// Teachers may pass ?userId= for one of their connected students.
func GetStreak(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	targetID, err := resolveStatsTarget(c, user)
	if err != nil {
		return renderServiceError(c, err)
	}

	streak, err := streakService.Reconcile(c.Context(), targetID)
	if err != nil {
		return renderServiceError(c, err)
	}
	studiedToday, err := streakService.HasStudiedToday(c.Context(), targetID)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.JSON(fiber.Map{"streak": streak, "hasStudiedToday": studiedToday})
}

// GetStats aggregates logs over ?range=day|week|month|year (week default).
// Teachers may pass ?userId= for a connected student.
func GetStats(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	targetID, err := resolveStatsTarget(c, user)
	if err != nil {
		return renderServiceError(c, err)
	}

	start, end := services.RangeBounds(c.Query("range", "week"), time.Now())
	stats, err := streakService.ComputeStats(c.Context(), targetID, start, end)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"stats": stats,
		"range": fiber.Map{"start": start, "end": end},
	})
}

// resolveStatsTarget defaults to the caller; a teacher may read a connected
// student instead.
func resolveStatsTarget(c *fiber.Ctx, user models.User) (primitive.ObjectID, error) {
	raw := c.Query("userId")
	if raw == "" || raw == user.Id.Hex() {
		return user.Id, nil
	}

	targetID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, services.NotFound("user not found")
	}
	if user.Role != models.RoleTeacher {
		return primitive.NilObjectID, services.Forbidden("only teachers can view another user's study data")
	}

	status, err := connectionService.StatusBetween(c.Context(), services.ActorFromUser(user), targetID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if status.Status != "connected" {
		return primitive.NilObjectID, services.Forbidden("you are not connected with this student")
	}
	return targetID, nil
}
