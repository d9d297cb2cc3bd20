package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// GetNotifications lists the caller's inbox, newest first.
// Query: page, limit, unread=true
func GetNotifications(c *fiber.Ctx) error {
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
	if c.Query("unread") == "true" {
		filter["isRead"] = false
	}

	coll := lib.DB.Collection("notifications")
	total, err := coll.CountDocuments(c.Context(), filter)
	if err != nil {
		log.Error("notification count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := coll.Find(c.Context(), filter, opts)
	if err != nil {
		log.Error("notification query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	notifications := []models.Notification{}
	if err := cursor.All(c.Context(), &notifications); err != nil {
		log.Error("notification decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"page":          page,
		"limit":         limit,
		"total":         total,
	})
}

// GetUnreadCount returns how many unread notices the caller has
func GetUnreadCount(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	count, err := lib.DB.Collection("notifications").CountDocuments(c.Context(), bson.M{"userId": user.Id, "isRead": false})
	if err != nil {
		log.Error("unread count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead flags one notice as read
func MarkNotificationRead(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	notificationID, err := primitive.ObjectIDFromHex(c.Params("notificationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}

	res, err := lib.DB.Collection("notifications").UpdateOne(
		c.Context(),
		bson.M{"_id": notificationID, "userId": user.Id},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		log.Error("mark read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.MatchedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found"))
	}
	return c.JSON(lib.MessageResponse("Notification marked as read"))
}

// MarkAllNotificationsRead flags the whole inbox as read
func MarkAllNotificationsRead(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	res, err := lib.DB.Collection("notifications").UpdateMany(
		c.Context(),
		bson.M{"userId": user.Id, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		log.Error("mark all read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(fiber.Map{"updated": res.ModifiedCount})
}

// DeleteReadNotifications prunes read notices older than ?days (default 30)
func DeleteReadNotifications(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 0 {
		days = 0
	}

	removed, err := notifier.CleanupRead(c.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Error("notification cleanup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// DeleteNotification removes one notice from the caller's inbox
func DeleteNotification(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	notificationID, err := primitive.ObjectIDFromHex(c.Params("notificationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}

	res, err := lib.DB.Collection("notifications").DeleteOne(c.Context(), bson.M{"_id": notificationID, "userId": user.Id})
	if err != nil {
		log.Error("notification delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.DeletedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found"))
	}
	return c.JSON(lib.MessageResponse("Notification deleted"))
}
