package controllers

import (
	"math"
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

type quizQuestionBody struct {
	Prompt       string   `json:"prompt" validate:"required,min=1,max=500"`
	Options      []string `json:"options" validate:"required,min=2,max=6,dive,required,max=200"`
	CorrectIndex int      `json:"correctIndex" validate:"min=0"`
}

type createQuizBody struct {
	Title            string             `json:"title" validate:"required,min=1,max=200"`
	Description      string             `json:"description" validate:"max=2000"`
	TimeLimitSeconds int                `json:"timeLimitSeconds" validate:"min=0,max=14400"`
	Questions        []quizQuestionBody `json:"questions" validate:"required,min=1,max=50,dive"`
	AssignedTo       []string           `json:"assignedTo"`
}

type submitAttemptBody struct {
	Answers      []int `json:"answers" validate:"required"`
	TimeTakenSec int   `json:"timeTakenSec" validate:"min=0"`
}

// CreateQuiz lets a teacher build a quiz and assign it to connected students
func CreateQuiz(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body createQuizBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	questions := make([]models.QuizQuestion, 0, len(body.Questions))
	for _, q := range body.Questions {
		if q.CorrectIndex >= len(q.Options) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("correctIndex out of range"))
		}
		questions = append(questions, models.QuizQuestion{
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}

	assigned := []primitive.ObjectID{}
	for _, raw := range body.AssignedTo {
		studentID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid student ID format"))
		}
		status, err := connectionService.StatusBetween(c.Context(), services.ActorFromUser(user), studentID)
		if err != nil {
			return renderServiceError(c, err)
		}
		if status.Status != "connected" {
			return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("You can only assign quizzes to connected students"))
		}
		assigned = append(assigned, studentID)
	}

	quiz := models.Quiz{
		Id:               primitive.NewObjectID(),
		Title:            body.Title,
		Description:      body.Description,
		TimeLimitSeconds: body.TimeLimitSeconds,
		Questions:        questions,
		AssignedTo:       assigned,
		CreatedBy:        user.Id,
		Attempts:         []models.QuizAttempt{},
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := lib.DB.Collection("quizzes").InsertOne(c.Context(), quiz); err != nil {
		log.Error("quiz insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	if len(assigned) > 0 {
		err := notifier.NotifyBulk(c.Context(), assigned, services.NotificationInput{
			Type:        models.NotificationTaskAssigned,
			Title:       "New Quiz",
			Message:     user.Name + " assigned you the quiz: " + quiz.Title,
			RelatedID:   quiz.Id,
			RelatedType: models.RelatedTask,
			Priority:    models.PriorityMedium,
		})
		if err != nil {
			log.Warn("quiz assignment notification failed", zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"quiz": quiz})
}

// GetQuizzes lists quizzes the caller created or was assigned
func GetQuizzes(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	filter := bson.M{"$or": []bson.M{
		{"createdBy": user.Id},
		{"assignedTo": user.Id},
	}}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := lib.DB.Collection("quizzes").Find(c.Context(), filter, opts)
	if err != nil {
		log.Error("quiz query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	defer cursor.Close(c.Context())

	quizzes := []models.Quiz{}
	if err := cursor.All(c.Context(), &quizzes); err != nil {
		log.Error("quiz decode failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	// students never see answer keys or other students' attempts
	if user.Role == models.RoleStudent {
		for i := range quizzes {
			redactQuizForStudent(&quizzes[i], user.Id)
		}
	}

	return c.JSON(fiber.Map{"quizzes": quizzes})
}

// GetQuiz fetches one quiz the caller can see
func GetQuiz(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	quiz, errResp := findVisibleQuiz(c, user)
	if quiz == nil {
		return errResp
	}
	if user.Role == models.RoleStudent {
		redactQuizForStudent(quiz, user.Id)
	}
	return c.JSON(fiber.Map{"quiz": quiz})
}

// SubmitQuizAttempt grades a student's answers. One attempt per student.
func SubmitQuizAttempt(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	var body submitAttemptBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	if err := lib.ValidateStruct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse(err.Error()))
	}

	quiz, errResp := findVisibleQuiz(c, user)
	if quiz == nil {
		return errResp
	}

	for _, attempt := range quiz.Attempts {
		if attempt.Student == user.Id {
			return c.Status(fiber.StatusConflict).JSON(lib.MessageResponse("You have already attempted this quiz"))
		}
	}
	if len(body.Answers) != len(quiz.Questions) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(lib.MessageResponse("Answer count must match question count"))
	}

	correct := 0
	for i, answer := range body.Answers {
		if answer == quiz.Questions[i].CorrectIndex {
			correct++
		}
	}
	score := int(math.Round(float64(correct) / float64(len(quiz.Questions)) * 100))

	attempt := models.QuizAttempt{
		Student:        user.Id,
		Answers:        body.Answers,
		CorrectCount:   correct,
		TotalQuestions: len(quiz.Questions),
		Score:          score,
		TimeTakenSec:   body.TimeTakenSec,
		SubmittedAt:    time.Now().UTC(),
	}

	_, err := lib.DB.Collection("quizzes").UpdateOne(
		c.Context(),
		bson.M{"_id": quiz.Id, "attempts.student": bson.M{"$ne": user.Id}},
		bson.M{"$push": bson.M{"attempts": attempt}},
	)
	if err != nil {
		log.Error("attempt insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attempt": attempt})
}

// DeleteQuiz removes a quiz; only its creator may
func DeleteQuiz(c *fiber.Ctx) error {
	user := c.Locals("user").(models.User)

	quizID, err := primitive.ObjectIDFromHex(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid quiz ID format"))
	}

	res, err := lib.DB.Collection("quizzes").DeleteOne(c.Context(), bson.M{"_id": quizID, "createdBy": user.Id})
	if err != nil {
		log.Error("quiz delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if res.DeletedCount == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Quiz not found"))
	}
	return c.JSON(lib.MessageResponse("Quiz deleted"))
}

// findVisibleQuiz loads :quizId if the caller created it or is assigned to
// it. On failure it writes the response and returns nil.
func findVisibleQuiz(c *fiber.Ctx, user models.User) (*models.Quiz, error) {
	quizID, err := primitive.ObjectIDFromHex(c.Params("quizId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid quiz ID format"))
	}

	var quiz models.Quiz
	err = lib.DB.Collection("quizzes").FindOne(c.Context(), bson.M{
		"_id": quizID,
		"$or": []bson.M{
			{"createdBy": user.Id},
			{"assignedTo": user.Id},
		},
	}).Decode(&quiz)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Quiz not found"))
		}
		log.Error("quiz lookup failed", zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return &quiz, nil
}

func redactQuizForStudent(quiz *models.Quiz, studentID primitive.ObjectID) {
	for i := range quiz.Questions {
		quiz.Questions[i].CorrectIndex = -1
	}
	own := []models.QuizAttempt{}
	for _, attempt := range quiz.Attempts {
		if attempt.Student == studentID {
			own = append(own, attempt)
		}
	}
	quiz.Attempts = own
}
