package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

// StudyLogRoutes covers timed sessions, manual logs, the streak readout and
// the aggregated stats
func StudyLogRoutes(app *fiber.App) {
	logs := app.Group("/api/v1/studylogs", middleware.ProtectRoute)

	logs.Post("/session/start", controllers.StartSession)
	logs.Post("/session/stop", controllers.StopSession)
	logs.Post("/", controllers.CreateManualLog)
	logs.Get("/", controllers.GetLogs)
	logs.Delete("/:logId", controllers.DeleteLog)
	logs.Get("/streak", controllers.GetStreak)
	logs.Get("/stats", controllers.GetStats)
}
