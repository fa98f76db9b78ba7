package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/service"
	"github.com/noah-isme/skor-go-api/internal/utils"
)

// GradebookHandler manages column, entry and history endpoints.
type GradebookHandler struct {
	service service.GradebookService
	logger  zerolog.Logger
}

// NewGradebookHandler builds a gradebook handler instance.
func NewGradebookHandler(service service.GradebookService, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		service: service,
		logger:  logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradebookHandler) Register(router fiber.Router) {
	router.Post("/offerings/:offeringID/columns", h.createColumn)
	router.Delete("/columns/:id", h.softDeleteColumn)
	router.Put("/columns/:id/scores/:studentID", h.setScore)
	router.Get("/offerings/:offeringID/students/:studentID/entries", h.entries)
	router.Get("/offerings/:offeringID/students/:studentID/completeness", h.completeness)
	router.Get("/entries/:id/history", h.history)
}

func (h *GradebookHandler) createColumn(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ColumnCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	column, err := h.service.CreateColumn(c.Context(), offeringID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "column created", column)
}

func (h *GradebookHandler) softDeleteColumn(c *fiber.Ctx) error {
	columnID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.SoftDeleteColumn(c.Context(), columnID, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "column deleted", nil)
}

func (h *GradebookHandler) setScore(c *fiber.Ctx) error {
	columnID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SetScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.SetScore(c.Context(), columnID, studentID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "score recorded", entry)
}

func (h *GradebookHandler) entries(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.service.GetEntries(c.Context(), offeringID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "entries retrieved", entries)
}

func (h *GradebookHandler) completeness(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	completeness, err := h.service.IsComplete(c.Context(), offeringID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "completeness retrieved", completeness)
}

func (h *GradebookHandler) history(c *fiber.Ctx) error {
	entryID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	history, err := h.service.History(c.Context(), entryID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "history retrieved", history)
}

func (h *GradebookHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course offering not found")
	case errors.Is(err, service.ErrColumnNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "column not found")
	case errors.Is(err, service.ErrEntryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "entry not found")
	case errors.Is(err, service.ErrAssessmentTypeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment type not found")
	case errors.Is(err, service.ErrColumnDeleted):
		return utils.SendError(c, fiber.StatusConflict, "column has been deleted")
	case errors.Is(err, service.ErrColumnHasScores):
		return utils.SendError(c, fiber.StatusConflict, "column has graded entries")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
