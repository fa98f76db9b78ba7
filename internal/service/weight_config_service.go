package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

// ErrDuplicateWeightConfig indicates the (course, type) pair already has an
// active weight row.
var ErrDuplicateWeightConfig = errors.New("weight configuration already exists for this assessment type")

// ErrWeightOutOfRange indicates a weight outside [0, 1].
var ErrWeightOutOfRange = errors.New("weight must be between 0 and 1")

// ErrWeightConfigNotFound indicates the referenced weight row does not exist.
var ErrWeightConfigNotFound = errors.New("weight configuration not found")

// ErrWeightConfigConflict indicates a concurrent administrator updated the row
// first; the caller must re-read and retry with the fresh version.
var ErrWeightConfigConflict = errors.New("weight configuration was modified concurrently")

// ErrCourseNotFound indicates the referenced course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrAssessmentTypeNotFound indicates the referenced assessment type does not exist.
var ErrAssessmentTypeNotFound = errors.New("assessment type not found")

// WeightConfigService manages the per-course assessment-type weight table.
type WeightConfigService interface {
	Create(ctx context.Context, courseID uint, payload dto.WeightConfigCreateRequest, actor ActivityActor) (dto.WeightConfigResponse, error)
	Update(ctx context.Context, configID uint, payload dto.WeightConfigUpdateRequest, actor ActivityActor) (dto.WeightConfigResponse, error)
	Delete(ctx context.Context, configID uint, actor ActivityActor) error
	ListByCourse(ctx context.Context, courseID uint) (dto.WeightConfigListResponse, error)
}

type weightConfigService struct {
	weights   repository.CourseWeightRepository
	courses   repository.CourseRepository
	types     repository.AssessmentTypeRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewWeightConfigService constructs the weight configuration service.
func NewWeightConfigService(weights repository.CourseWeightRepository, courses repository.CourseRepository, types repository.AssessmentTypeRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) WeightConfigService {
	return &weightConfigService{
		weights:   weights,
		courses:   courses,
		types:     types,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "weight_config_service").Logger(),
	}
}

func (s *weightConfigService) Create(ctx context.Context, courseID uint, payload dto.WeightConfigCreateRequest, actor ActivityActor) (dto.WeightConfigResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/weight_config")
	ctx, span := tracer.Start(ctx, "weight_config.create")
	span.SetAttributes(attribute.Int64("weight_config.course_id", int64(courseID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.WeightConfigResponse{}, err
	}

	if payload.Weight < 0 || payload.Weight > 1 {
		return dto.WeightConfigResponse{}, ErrWeightOutOfRange
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeightConfigResponse{}, ErrCourseNotFound
		}
		return dto.WeightConfigResponse{}, err
	}

	assessmentType, err := s.types.GetByID(ctx, payload.AssessmentTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeightConfigResponse{}, ErrAssessmentTypeNotFound
		}
		return dto.WeightConfigResponse{}, err
	}

	if _, err := s.weights.GetByCourseAndType(ctx, courseID, payload.AssessmentTypeID); err == nil {
		span.SetStatus(codes.Error, "duplicate_config")
		return dto.WeightConfigResponse{}, ErrDuplicateWeightConfig
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.WeightConfigResponse{}, err
	}

	weight := models.CourseWeight{
		CourseID:         courseID,
		AssessmentTypeID: payload.AssessmentTypeID,
		Weight:           payload.Weight,
		Method:           models.GradingMethod(payload.Method),
		Version:          1,
	}

	if err := s.weights.Create(ctx, &weight); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.WeightConfigResponse{}, err
	}

	weight.AssessmentType = assessmentType
	s.recordActivity(ctx, actor, "weight_config.created", weight.ID, map[string]interface{}{
		"course_id":          courseID,
		"assessment_type_id": payload.AssessmentTypeID,
		"weight":             payload.Weight,
		"method":             payload.Method,
	})

	return dto.NewWeightConfigResponse(weight), nil
}

func (s *weightConfigService) Update(ctx context.Context, configID uint, payload dto.WeightConfigUpdateRequest, actor ActivityActor) (dto.WeightConfigResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/weight_config")
	ctx, span := tracer.Start(ctx, "weight_config.update")
	span.SetAttributes(attribute.Int64("weight_config.id", int64(configID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.WeightConfigResponse{}, err
	}

	weight, err := s.weights.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeightConfigResponse{}, ErrWeightConfigNotFound
		}
		return dto.WeightConfigResponse{}, err
	}

	if payload.AssessmentTypeID != nil && *payload.AssessmentTypeID != weight.AssessmentTypeID {
		assessmentType, err := s.types.GetByID(ctx, *payload.AssessmentTypeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.WeightConfigResponse{}, ErrAssessmentTypeNotFound
			}
			return dto.WeightConfigResponse{}, err
		}

		// Changing the type re-validates uniqueness against the new pair.
		if _, err := s.weights.GetByCourseAndType(ctx, weight.CourseID, *payload.AssessmentTypeID); err == nil {
			span.SetStatus(codes.Error, "duplicate_config")
			return dto.WeightConfigResponse{}, ErrDuplicateWeightConfig
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeightConfigResponse{}, err
		}

		weight.AssessmentTypeID = *payload.AssessmentTypeID
		weight.AssessmentType = assessmentType
	}

	if payload.Weight != nil {
		if *payload.Weight < 0 || *payload.Weight > 1 {
			return dto.WeightConfigResponse{}, ErrWeightOutOfRange
		}
		weight.Weight = *payload.Weight
	}

	if payload.Method != nil {
		weight.Method = models.GradingMethod(*payload.Method)
	}

	applied, err := s.weights.UpdateVersioned(ctx, &weight, payload.Version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.WeightConfigResponse{}, err
	}
	if !applied {
		span.SetStatus(codes.Error, "version_conflict")
		return dto.WeightConfigResponse{}, ErrWeightConfigConflict
	}

	s.recordActivity(ctx, actor, "weight_config.updated", weight.ID, map[string]interface{}{
		"course_id":          weight.CourseID,
		"assessment_type_id": weight.AssessmentTypeID,
		"weight":             weight.Weight,
		"method":             string(weight.Method),
		"version":            weight.Version,
	})

	return dto.NewWeightConfigResponse(weight), nil
}

// Delete removes the configuration row unconditionally. Gradebook columns
// referencing the type are guarded separately; aggregation for them surfaces
// ErrMissingWeightConfig until the course is reconfigured.
func (s *weightConfigService) Delete(ctx context.Context, configID uint, actor ActivityActor) error {
	weight, err := s.weights.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWeightConfigNotFound
		}
		return err
	}

	if err := s.weights.Delete(ctx, configID); err != nil {
		return err
	}

	s.recordActivity(ctx, actor, "weight_config.deleted", configID, map[string]interface{}{
		"course_id":          weight.CourseID,
		"assessment_type_id": weight.AssessmentTypeID,
	})

	return nil
}

func (s *weightConfigService) ListByCourse(ctx context.Context, courseID uint) (dto.WeightConfigListResponse, error) {
	weights, err := s.weights.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.WeightConfigListResponse{}, err
	}

	responses := make([]dto.WeightConfigResponse, 0, len(weights))
	var sum float64
	for _, weight := range weights {
		responses = append(responses, dto.NewWeightConfigResponse(weight))
		sum += weight.Weight
	}

	return dto.WeightConfigListResponse{CourseID: courseID, Weights: responses, WeightSum: sum}, nil
}

func (s *weightConfigService) recordActivity(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "course_weight",
		EntityID:   &entityID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
