package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/service"
	"github.com/noah-isme/skor-go-api/internal/utils"
)

// WeightConfigHandler manages the per-course weight configuration endpoints.
type WeightConfigHandler struct {
	service service.WeightConfigService
	logger  zerolog.Logger
}

// NewWeightConfigHandler builds a weight configuration handler instance.
func NewWeightConfigHandler(service service.WeightConfigService, logger zerolog.Logger) *WeightConfigHandler {
	return &WeightConfigHandler{
		service: service,
		logger:  logger.With().Str("component", "weight_config_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *WeightConfigHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseID/weights", h.list)
	router.Post("/courses/:courseID/weights", h.create)
	router.Patch("/weights/:id", h.update)
	router.Delete("/weights/:id", h.delete)
}

func (h *WeightConfigHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	weights, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "weight configuration retrieved", weights)
}

func (h *WeightConfigHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.WeightConfigCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	weight, err := h.service.Create(c.Context(), courseID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "weight configuration created", weight)
}

func (h *WeightConfigHandler) update(c *fiber.Ctx) error {
	configID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.WeightConfigUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	weight, err := h.service.Update(c.Context(), configID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "weight configuration updated", weight)
}

func (h *WeightConfigHandler) delete(c *fiber.Ctx) error {
	configID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), configID, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "weight configuration deleted", nil)
}

func (h *WeightConfigHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrDuplicateWeightConfig):
		return utils.SendError(c, fiber.StatusConflict, "weight configuration already exists for this assessment type")
	case errors.Is(err, service.ErrWeightConfigConflict):
		return utils.SendError(c, fiber.StatusConflict, "weight configuration was modified concurrently")
	case errors.Is(err, service.ErrWeightOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, "weight must be between 0 and 1")
	case errors.Is(err, service.ErrWeightConfigNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "weight configuration not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrAssessmentTypeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment type not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
