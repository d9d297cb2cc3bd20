package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/middleware"
	"github.com/theleywin/Backend-Study-Hub/src/models"
)

func QuizRoutes(app *fiber.App) {
	quizzes := app.Group("/api/v1/quizzes", middleware.ProtectRoute)

	quizzes.Post("/", middleware.RequireRole(models.RoleTeacher), controllers.CreateQuiz)
	quizzes.Get("/", controllers.GetQuizzes)
	quizzes.Get("/:quizId", controllers.GetQuiz)
	quizzes.Post("/:quizId/attempt", middleware.RequireRole(models.RoleStudent), controllers.SubmitQuizAttempt)
	quizzes.Delete("/:quizId", middleware.RequireRole(models.RoleTeacher), controllers.DeleteQuiz)
}
