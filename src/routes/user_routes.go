package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// UserRoutes covers the role-profile endpoints for both sides
func UserRoutes(app *fiber.App) {
	teachers := app.Group("/api/v1/teachers", middleware.ProtectRoute)
	teachers.Get("/me", middleware.RequireRole(models.RoleTeacher), controllers.GetTeacherProfile)
	teachers.Post("/me/code", middleware.RequireRole(models.RoleTeacher), controllers.RegenerateTeacherCode)
	teachers.Get("/me/students", middleware.RequireRole(models.RoleTeacher), controllers.GetMyStudents)
	teachers.Get("/code/:code", controllers.GetTeacherByCode)

	students := app.Group("/api/v1/students", middleware.ProtectRoute)
	students.Get("/search", middleware.RequireRole(models.RoleTeacher), controllers.SearchStudents)
	students.Get("/me/teachers", middleware.RequireRole(models.RoleStudent), controllers.GetMyTeachers)
}
