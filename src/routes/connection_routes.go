package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

// ConnectionRoutes sets up the teacher-student pairing endpoints: requesting,
// accepting, rejecting, listing, removing and checking status
func ConnectionRoutes(app *fiber.App) {
	connection := app.Group("/api/v1/connections", middleware.ProtectRoute)

	connection.Post("/request", controllers.SendConnectionRequest)
	connection.Put("/accept/:requestId", controllers.AcceptConnectionRequest)
	connection.Put("/reject/:requestId", controllers.RejectConnectionRequest)
	connection.Get("/", controllers.GetConnections)
	connection.Delete("/:connectionId", controllers.RemoveConnection)
	connection.Get("/status/:userId", controllers.GetConnectionStatus)
}
