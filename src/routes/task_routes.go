package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

func TaskRoutes(app *fiber.App) {
	tasks := app.Group("/api/v1/tasks", middleware.ProtectRoute)

	tasks.Post("/", controllers.CreateTask)
	tasks.Get("/", controllers.GetTasks)
	tasks.Put("/:taskId", controllers.UpdateTask)
	tasks.Delete("/:taskId", controllers.DeleteTask)
}
