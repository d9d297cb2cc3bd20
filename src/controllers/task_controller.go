package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/services"
)

type createTaskBody struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	DueDate     string `json:"dueDate"` // RFC 3339, optional
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  string `json:"assignedTo"` // teachers only; defaults to self
}

type updateTaskBody struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending completed"`
}

// CreateTask makes a task for the caller, or, for teachers, assigns one to a
// connected student
func CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body createTaskBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	assignedTo := user.Id
	if body.AssignedTo != "" && body.AssignedTo != user.Id.Hex() {
		if user.Role != models.RoleTeacher {
			return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Only teachers can assign tasks to others"))
		}
		studentID, err := primitive.ObjectIDFromHex(body.AssignedTo)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid student ID format"))
		}
		status, err := connectionService.StatusBetween(c.Context(), services.ActorFromUser(user), studentID)
		if err != nil {
			return renderServiceError(c, err)
		}
		if status.Status != "connected" {
			return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("You can only assign tasks to connected students"))
		}
		assignedTo = studentID
	}

	var dueDate *time.Time
	if body.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, body.DueDate)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("dueDate must be RFC 3339"))
		}
		utc := parsed.UTC()
		dueDate = &utc
	}

	priority := body.Priority
	if priority == "" {
		priority = "medium"
	}

	task := models.Task{
		Id:          primitive.NewObjectID(),
		Title:       body.Title,
		Description: body.Description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      models.TaskStatusPending,
		AssignedBy:  user.Id,
		AssignedTo:  assignedTo,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := lib.DB.Collection("tasks").InsertOne(c.Context(), task); err != nil {
		log.Error("task insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	// registrar la tarea en el perfil correspondiente
	if assignedTo == user.Id {
		if user.Role == models.RoleStudent {
			lib.DB.Collection("studentprofiles").UpdateOne(c.Context(),
				bson.M{"userId": user.Id}, bson.M{"$addToSet": bson.M{"selfTasks": task.Id}})
		}
	} else {
		lib.DB.Collection("teacherprofiles").UpdateOne(c.Context(),
			bson.M{"userId": user.Id}, bson.M{"$addToSet": bson.M{"assignedTasks": task.Id}})

		err := notifier.Notify(c.Context(), services.NotificationInput{
			UserID:      assignedTo,
			Type:        models.NotificationTaskAssigned,
			Title:       "New Task Assigned",
			Message:     user.Name + " assigned you: " + task.Title,
			RelatedID:   task.Id,
			RelatedType: models.RelatedTask,
			Priority:    models.PriorityMedium,
		})
		if err != nil {
			log.Warn("task assignment notification failed", zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

// GetTasks lists tasks visible to the caller: assigned to them, and for
// teachers also the ones they handed out. ?status=pending|completed
func GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	filter := bson.M{"assignedTo": user.Id}
	if user.Role == models.RoleTeacher {
		filter = bson.M{"$or": []bson.M{
			{"assignedTo": user.Id},
			{"assignedBy": user.Id},
		}}
	}
	if status := c.Query("status"); status == "pending" || status == "completed" {
		filter = bson.M{"$and": []bson.M{filter, {"status": status}}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: -1}})
	cursor, err := lib.DB.Collection("tasks").Find(c.Context(), filter, opts)
	if err != nil {
		log.Error("task query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	tasks := []models.Task{}
	if err := cursor.All(c.Context(), &tasks); err != nil {
		log.Error("task decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

// UpdateTask edits a task. The assignee may change status; only the creator
// may edit the rest. Completing an assigned task notifies the teacher.
func UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	taskID, err := primitive.ObjectIDFromHex(c.Params("taskId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid task ID format"))
	}

	var body updateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	tasksColl := lib.DB.Collection("tasks")
	var task models.Task
	if err := tasksColl.FindOne(c.Context(), bson.M{"_id": taskID}).Decode(&task); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Task not found"))
		}
		log.Error("task lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	isCreator := task.AssignedBy == user.Id
	isAssignee := task.AssignedTo == user.Id
	if !isCreator && !isAssignee {
		return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Not authorized to edit this task"))
	}

	update := bson.M{}
	if body.Status != nil {
		update["status"] = *body.Status
	}
	if isCreator {
		if body.Title != nil {
			update["title"] = *body.Title
		}
		if body.Description != nil {
			update["description"] = *body.Description
		}
		if body.Priority != nil {
			update["priority"] = *body.Priority
		}
		if body.DueDate != nil {
			if *body.DueDate == "" {
				update["dueDate"] = nil
			} else {
				parsed, err := time.Parse(time.RFC3339, *body.DueDate)
				if err != nil {
					return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("dueDate must be RFC 3339"))
				}
				update["dueDate"] = parsed.UTC()
			}
		}
	} else if body.Title != nil || body.Description != nil || body.Priority != nil || body.DueDate != nil {
		return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Only the task creator can edit its details"))
	}
	if len(update) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Nothing to update"))
	}

	if _, err := tasksColl.UpdateOne(c.Context(), bson.M{"_id": taskID}, bson.M{"$set": update}); err != nil {
		log.Error("task update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	completedNow := body.Status != nil && *body.Status == string(models.TaskStatusCompleted) && task.Status != models.TaskStatusCompleted
	if completedNow && task.AssignedBy != task.AssignedTo && isAssignee {
		err := notifier.Notify(c.Context(), services.NotificationInput{
			UserID:      task.AssignedBy,
			Type:        models.NotificationTaskCompleted,
			Title:       "Task Completed",
			Message:     user.Name + " completed: " + task.Title,
			RelatedID:   task.Id,
			RelatedType: models.RelatedTask,
			Priority:    models.PriorityLow,
		})
		if err != nil {
			log.Warn("task completion notification failed", zap.Error(err))
		}
	}

	if err := tasksColl.FindOne(c.Context(), bson.M{"_id": taskID}).Decode(&task); err != nil {
		log.Error("task reload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(fiber.Map{"task": task})
}

// DeleteTask removes a task; only its creator may
func DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	taskID, err := primitive.ObjectIDFromHex(c.Params("taskId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid task ID format"))
	}

	res, err := lib.DB.Collection("tasks").DeleteOne(c.Context(), bson.M{"_id": taskID, "assignedBy": user.Id})
	if err != nil {
		log.Error("task delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.DeletedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Task not found"))
	}

	// limpiar las referencias del perfil
	lib.DB.Collection("teacherprofiles").UpdateOne(c.Context(),
		bson.M{"userId": user.Id}, bson.M{"$pull": bson.M{"assignedTasks": taskID}})
	lib.DB.Collection("studentprofiles").UpdateOne(c.Context(),
		bson.M{"userId": user.Id}, bson.M{"$pull": bson.M{"selfTasks": taskID}})

	return c.JSON(lib.MessageResponse("Task deleted"))
}
