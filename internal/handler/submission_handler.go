package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/service"
	"github.com/noah-isme/skor-go-api/internal/utils"
)

// SubmissionHandler exposes submission listing and finalization.
type SubmissionHandler struct {
	service service.SubmissionScoringService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionScoringService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/finalize", h.finalize)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	if offeringID, err := parseQueryUint(c, "offering_id"); err == nil && offeringID != nil {
		filter.OfferingID = offeringID
	}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if typeID, err := parseQueryUint(c, "assessment_type_id"); err == nil && typeID != nil {
		filter.AssessmentTypeID = typeID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) finalize(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Finalize(c.Context(), submissionID, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission finalized", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrSubmissionAlreadyFinal):
		return utils.SendError(c, fiber.StatusConflict, "submission is already finalized")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
