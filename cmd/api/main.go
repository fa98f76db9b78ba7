package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skor-go-api/internal/config"
	"github.com/noah-isme/skor-go-api/internal/database"
	"github.com/noah-isme/skor-go-api/internal/handler"
	"github.com/noah-isme/skor-go-api/internal/middleware"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
	"github.com/noah-isme/skor-go-api/internal/router"
	"github.com/noah-isme/skor-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.CourseOffering{},
		&models.Enrollment{},
		&models.AssessmentType{},
		&models.CourseWeight{},
		&models.GradebookColumn{},
		&models.GradebookEntry{},
		&models.GradebookEntryHistory{},
		&models.TopicMark{},
		&models.Question{},
		&models.Submission{},
		&models.SubmissionAnswer{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// Recomputed events are best-effort; the API stays up without a broker.
	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = database.ConnectNats(cfg.NatsURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, recomputation events disabled")
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	typeRepo := repository.NewAssessmentTypeRepository(db)
	weightRepo := repository.NewCourseWeightRepository(db)
	gradebookRepo := repository.NewGradebookRepository(db)
	topicMarkRepo := repository.NewTopicMarkRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	aggregationService := service.NewAggregationService(offeringRepo, weightRepo, gradebookRepo, submissionRepo, topicMarkRepo, redisClient, cfg.MarksCacheTTL, natsConn, cfg.NatsSubject, logger)
	weightService := service.NewWeightConfigService(weightRepo, courseRepo, typeRepo, validate, activityService, logger)
	gradebookService := service.NewGradebookService(gradebookRepo, offeringRepo, enrollmentRepo, typeRepo, aggregationService, validate, activityService, logger)
	scoringService := service.NewSubmissionScoringService(submissionRepo, aggregationService, activityService, logger)

	weightHandler := handler.NewWeightConfigHandler(weightService, logger)
	gradebookHandler := handler.NewGradebookHandler(gradebookService, logger)
	topicMarkHandler := handler.NewTopicMarkHandler(aggregationService, logger)
	submissionHandler := handler.NewSubmissionHandler(scoringService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		WeightConfigHandler: weightHandler,
		GradebookHandler:    gradebookHandler,
		TopicMarkHandler:    topicMarkHandler,
		SubmissionHandler:   submissionHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
