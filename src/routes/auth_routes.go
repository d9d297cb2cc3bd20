package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
)

func AuthRoutes(app *fiber.App) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/register", controllers.Register)
	auth.Post("/login", controllers.Login)
	auth.Post("/logout", controllers.Logout)
	auth.Get("/me", middleware.ProtectRoute, controllers.Me)
}
