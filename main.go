package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/config"
	"github.com/theleywin/Backend-Study-Hub/src/controllers"
	"github.com/theleywin/Backend-Study-Hub/src/lib"
	"github.com/theleywin/Backend-Study-Hub/src/routes"
	"github.com/theleywin/Backend-Study-Hub/src/services"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := lib.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := lib.ConnectDB(cfg.MongoURI, cfg.DBName); err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.DBName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := lib.EnsureIndexes(ctx, lib.DB); err != nil {
		logger.Fatal("index creation failed", zap.Error(err))
	}

	st := store.NewMongo(lib.DB)
	controllers.Init(logger, st)

	notifier := services.NewNotifier(st.Notifications, logger)
	checker := services.NewTaskChecker(st.Tasks, notifier, logger)
	checker.Start(ctx, time.Hour)

	app := fiber.New(fiber.Config{
		AppName: "Study Hub API",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.AuthRoutes(app)
	routes.ConnectionRoutes(app)
	routes.StudyLogRoutes(app)
	routes.NotificationRoutes(app)
	routes.TaskRoutes(app)
	routes.UserRoutes(app)
	routes.QuizRoutes(app)
	routes.MindMapRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		cancel()
		app.Shutdown()
	}()

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
