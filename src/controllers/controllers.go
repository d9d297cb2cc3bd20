package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/services"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

var (
	log               *zap.Logger
	notifier          *services.Notifier
	connectionService *services.ConnectionService
	streakService     *services.StreakService
)

// Init wires the handlers to their services. Called once from main after the
// database connection is up.
func Init(logger *zap.Logger, st *store.Mongo) {
	log = logger
	notifier = services.NewNotifier(st.Notifications, logger)
	connectionService = services.NewConnectionService(st.Connections, st.Users, st.Profiles, notifier, logger)
	streakService = services.NewStreakService(st.StudyLogs, st.Streaks, notifier, logger)
}

// renderServiceError maps a service error onto the response. Conflict and
// invalid-operation responses carry the connection's current status so the
// client can explain what happened.
func renderServiceError(c *fiber.Ctx, err error) error {
	if se, ok := services.AsError(err); ok {
		body := fiber.Map{"message": se.Message}
		if se.Status != "" {
			body["status"] = se.Status
		}
		return c.Status(services.HTTPStatus(err)).JSON(body)
	}

	log.Error("unhandled service error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
}
