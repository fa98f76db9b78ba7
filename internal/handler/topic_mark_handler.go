package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skor-go-api/internal/service"
	"github.com/noah-isme/skor-go-api/internal/utils"
)

// TopicMarkHandler exposes the derived final marks and explicit recomputation.
type TopicMarkHandler struct {
	service service.AggregationService
	logger  zerolog.Logger
}

// NewTopicMarkHandler builds a topic mark handler instance.
func NewTopicMarkHandler(service service.AggregationService, logger zerolog.Logger) *TopicMarkHandler {
	return &TopicMarkHandler{
		service: service,
		logger:  logger.With().Str("component", "topic_mark_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TopicMarkHandler) Register(router fiber.Router) {
	router.Get("/offerings/:offeringID/marks", h.list)
	router.Get("/offerings/:offeringID/students/:studentID/marks", h.get)
	router.Post("/offerings/:offeringID/students/:studentID/marks/recompute", h.recompute)
}

func (h *TopicMarkHandler) list(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	marks, err := h.service.ListMarks(c.Context(), offeringID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "marks retrieved", marks)
}

func (h *TopicMarkHandler) get(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	mark, err := h.service.GetMark(c.Context(), offeringID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mark retrieved", mark)
}

func (h *TopicMarkHandler) recompute(c *fiber.Ctx) error {
	offeringID, err := parseUintParam(c, "offeringID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	mark, err := h.service.ComputeFinal(c.Context(), offeringID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mark recomputed", mark)
}

func (h *TopicMarkHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course offering not found")
	case errors.Is(err, service.ErrTopicMarkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "mark not computed yet")
	case errors.Is(err, service.ErrNoWeightConfig):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "course has no weight configuration")
	case errors.Is(err, service.ErrMissingWeightConfig):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
