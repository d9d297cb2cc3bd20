package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/services"
)

type connectionRequestBody struct {
	// a user id for teachers; a user id or join code for students
	Target string `json:"target" validate:"required"`
}

// SendConnectionRequest opens a pending connection towards the target.
// Teachers send a student id; students send a teacher id or join code.
func SendConnectionRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body connectionRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	dto, err := connectionService.Request(c.Context(), services.ActorFromUser(user), body.Target)
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"connection": dto})
}

// AcceptConnectionRequest accepts a pending request addressed to the caller
func AcceptConnectionRequest(c *fiber.Ctx) error {
	return respondToConnection(c, services.ActionAccept)
}

// RejectConnectionRequest rejects a pending request addressed to the caller
func RejectConnectionRequest(c *fiber.Ctx) error {
	return respondToConnection(c, services.ActionReject)
}

func respondToConnection(c *fiber.Ctx, action string) error {
	user := c.Locals("user").(models.User)

	requestID, err := primitive.ObjectIDFromHex(c.Params("requestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request ID format"))
	}

	dto, err := connectionService.Respond(c.Context(), services.ActorFromUser(user), requestID, action)
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(fiber.Map{"connection": dto})
}

// GetConnections lists the caller's connections; ?filter=pending|accepted|all
func GetConnections(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	dtos, err := connectionService.List(c.Context(), services.ActorFromUser(user), c.Query("filter", services.FilterAll))
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(fiber.Map{"connections": dtos})
}

// RemoveConnection disconnects a student. Teacher-only.
func RemoveConnection(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	connectionID, err := primitive.ObjectIDFromHex(c.Params("connectionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid connection ID format"))
	}

	if err := connectionService.Remove(c.Context(), user.Id, connectionID); err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(lib.MessageResponse("Connection removed successfully"))
}

// GetConnectionStatus reports where the handshake with another user stands
func GetConnectionStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	otherID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid user ID format"))
	}

	status, err := connectionService.StatusBetween(c.Context(), services.ActorFromUser(user), otherID)
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(status)
}
