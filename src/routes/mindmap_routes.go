package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

func MindMapRoutes(app *fiber.App) {
	mindmaps := app.Group("/api/v1/mindmaps", middleware.ProtectRoute)

	mindmaps.Post("/", controllers.CreateMindMap)
	mindmaps.Get("/", controllers.GetMindMaps)
	mindmaps.Put("/:mindMapId", controllers.UpdateMindMap)
	mindmaps.Delete("/:mindMapId", controllers.DeleteMindMap)
}
