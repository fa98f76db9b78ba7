package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/config"
	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/handler"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
	"github.com/noah-isme/skor-go-api/internal/router"
	"github.com/noah-isme/skor-go-api/internal/service"
)

func setupTopicMarkApp(t *testing.T) (*gorm.DB, *fiber.App) {
	t.Helper()

	dsn := fmt.Sprintf("file:topic_mark_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.CourseOffering{},
		&models.AssessmentType{},
		&models.CourseWeight{},
		&models.GradebookColumn{},
		&models.GradebookEntry{},
		&models.Submission{},
		&models.SubmissionAnswer{},
		&models.TopicMark{},
	))

	require.NoError(t, db.Create(&models.Course{ID: 1, Code: "CS101", Title: "Algorithms", MinPassingScore: 60}).Error)
	require.NoError(t, db.Create(&models.CourseOffering{ID: 1, CourseID: 1, Term: "2026-1"}).Error)
	require.NoError(t, db.Create(&models.AssessmentType{ID: 1, Name: "Quiz"}).Error)

	logger := zerolog.New(io.Discard)
	aggregationService := service.NewAggregationService(
		repository.NewOfferingRepository(db),
		repository.NewCourseWeightRepository(db),
		repository.NewGradebookRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewTopicMarkRepository(db),
		nil,
		time.Minute,
		nil,
		"",
		logger,
	)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		TopicMarkHandler: handler.NewTopicMarkHandler(aggregationService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(9))
			return c.Next()
		},
	})

	return db, app
}

func TestTopicMarkHandlerRecomputeAndRead(t *testing.T) {
	db, app := setupTopicMarkApp(t)

	require.NoError(t, db.Create(&models.CourseWeight{CourseID: 1, AssessmentTypeID: 1, Weight: 1, Method: models.GradingMethodHighest, Version: 1}).Error)
	column := models.GradebookColumn{OfferingID: 1, AssessmentTypeID: 1, Index: 1, Label: "Quiz 1"}
	require.NoError(t, db.Create(&column).Error)
	score := 91.0
	require.NoError(t, db.Create(&models.GradebookEntry{ColumnID: column.ID, StudentID: 7, Score: &score}).Error)

	// A mark does not exist until it has been computed.
	req := httptest.NewRequest("GET", "/api/v1/offerings/1/students/7/marks", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/offerings/1/students/7/marks/recompute", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var recomputed struct {
		Success bool                  `json:"success"`
		Data    dto.TopicMarkResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recomputed))
	require.True(t, recomputed.Success)
	require.InDelta(t, 91.0, recomputed.Data.FinalScore, 0.0001)
	require.True(t, recomputed.Data.IsPassed)

	req = httptest.NewRequest("GET", "/api/v1/offerings/1/students/7/marks", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/offerings/1/marks", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data dto.TopicMarkListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Data.Marks, 1)
	require.Equal(t, uint(7), listed.Data.Marks[0].StudentID)
}

func TestTopicMarkHandlerUnconfiguredCourse(t *testing.T) {
	_, app := setupTopicMarkApp(t)

	req := httptest.NewRequest("POST", "/api/v1/offerings/1/students/7/marks/recompute", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/offerings/42/students/7/marks/recompute", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
