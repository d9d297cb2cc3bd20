package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

func NotificationRoutes(app *fiber.App) {
	notifications := app.Group("/api/v1/notifications", middleware.ProtectRoute)

	notifications.Get("/", controllers.GetNotifications)
	notifications.Get("/unread-count", controllers.GetUnreadCount)
	notifications.Put("/read-all", controllers.MarkAllNotificationsRead)
	notifications.Put("/:notificationId/read", controllers.MarkNotificationRead)
	notifications.Delete("/read", controllers.DeleteReadNotifications)
	notifications.Delete("/:notificationId", controllers.DeleteNotification)
}
