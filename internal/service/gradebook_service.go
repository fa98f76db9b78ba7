package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

// ErrOfferingNotFound indicates the course offering does not exist.
var ErrOfferingNotFound = errors.New("course offering not found")

// ErrColumnNotFound indicates the gradebook column does not exist.
var ErrColumnNotFound = errors.New("gradebook column not found")

// ErrColumnDeleted indicates the column was soft-deleted and no longer accepts scores.
var ErrColumnDeleted = errors.New("gradebook column has been deleted")

// ErrColumnHasScores indicates the column holds graded entries and cannot be removed.
var ErrColumnHasScores = errors.New("gradebook column has graded entries")

// ErrEntryNotFound indicates no entry row exists for the (column, student)
// pair. Entries are provisioned at column creation, never created on write.
var ErrEntryNotFound = errors.New("gradebook entry not found")

// MarkRecomputer triggers a final-mark recomputation after an input changed.
// The gradebook depends on this narrow interface so the aggregation engine can
// be swapped or stubbed.
type MarkRecomputer interface {
	ComputeFinal(ctx context.Context, offeringID, studentID uint) (dto.TopicMarkResponse, error)
}

// GradebookService owns dynamic columns, per-student entries and the
// append-only edit history.
type GradebookService interface {
	CreateColumn(ctx context.Context, offeringID uint, payload dto.ColumnCreateRequest, actor ActivityActor) (dto.ColumnResponse, error)
	SoftDeleteColumn(ctx context.Context, columnID uint, actor ActivityActor) error
	SetScore(ctx context.Context, columnID, studentID uint, payload dto.SetScoreRequest, actor ActivityActor) (dto.EntryResponse, error)
	GetEntries(ctx context.Context, offeringID, studentID uint) ([]dto.EntryResponse, error)
	IsComplete(ctx context.Context, offeringID, studentID uint) (dto.CompletenessResponse, error)
	History(ctx context.Context, entryID uint) ([]dto.EntryHistoryResponse, error)
}

type gradebookService struct {
	gradebook   repository.GradebookRepository
	offerings   repository.OfferingRepository
	enrollments repository.EnrollmentRepository
	types       repository.AssessmentTypeRepository
	recomputer  MarkRecomputer
	validator   *validator.Validate
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewGradebookService constructs the gradebook service.
func NewGradebookService(gradebook repository.GradebookRepository, offerings repository.OfferingRepository, enrollments repository.EnrollmentRepository, types repository.AssessmentTypeRepository, recomputer MarkRecomputer, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		gradebook:   gradebook,
		offerings:   offerings,
		enrollments: enrollments,
		types:       types,
		recomputer:  recomputer,
		validator:   validate,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
	}
}

// CreateColumn appends a column for (offering, type) at the next free index
// and provisions one ungraded entry per active enrollment.
func (s *gradebookService) CreateColumn(ctx context.Context, offeringID uint, payload dto.ColumnCreateRequest, actor ActivityActor) (dto.ColumnResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/gradebook")
	ctx, span := tracer.Start(ctx, "gradebook.create_column")
	span.SetAttributes(attribute.Int64("gradebook.offering_id", int64(offeringID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ColumnResponse{}, err
	}

	if _, err := s.offerings.GetByID(ctx, offeringID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ColumnResponse{}, ErrOfferingNotFound
		}
		return dto.ColumnResponse{}, err
	}

	assessmentType, err := s.types.GetByID(ctx, payload.AssessmentTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ColumnResponse{}, ErrAssessmentTypeNotFound
		}
		return dto.ColumnResponse{}, err
	}

	index, err := s.gradebook.NextIndex(ctx, offeringID, payload.AssessmentTypeID)
	if err != nil {
		return dto.ColumnResponse{}, err
	}

	studentIDs, err := s.enrollments.ActiveStudentIDs(ctx, offeringID)
	if err != nil {
		return dto.ColumnResponse{}, err
	}

	column := models.GradebookColumn{
		OfferingID:       offeringID,
		AssessmentTypeID: payload.AssessmentTypeID,
		Index:            index,
		Label:            strings.TrimSpace(payload.Label),
	}

	if err := s.gradebook.CreateColumnWithEntries(ctx, &column, studentIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "column_create_failed")
		return dto.ColumnResponse{}, err
	}

	column.AssessmentType = assessmentType
	s.recordActivity(ctx, actor, "gradebook.column_created", column.ID, map[string]interface{}{
		"offering_id":        offeringID,
		"assessment_type_id": payload.AssessmentTypeID,
		"index":              index,
		"provisioned":        len(studentIDs),
	})

	return dto.NewColumnResponse(column), nil
}

// SoftDeleteColumn removes the column from aggregation and new writes while
// preserving its entries and history. Columns with graded entries stay.
func (s *gradebookService) SoftDeleteColumn(ctx context.Context, columnID uint, actor ActivityActor) error {
	column, err := s.gradebook.GetColumn(ctx, columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return err
	}

	if column.Deleted {
		return nil
	}

	hasScores, err := s.gradebook.ColumnHasScores(ctx, columnID)
	if err != nil {
		return err
	}
	if hasScores {
		return ErrColumnHasScores
	}

	if err := s.gradebook.SoftDeleteColumn(ctx, columnID); err != nil {
		return err
	}

	s.recordActivity(ctx, actor, "gradebook.column_deleted", columnID, map[string]interface{}{
		"offering_id": column.OfferingID,
	})

	return nil
}

// SetScore writes the score and appends a history record in one transaction,
// then triggers a recomputation for the student. The history row is appended
// even when the value is unchanged; re-confirming a score is still an edit.
func (s *gradebookService) SetScore(ctx context.Context, columnID, studentID uint, payload dto.SetScoreRequest, actor ActivityActor) (dto.EntryResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/gradebook")
	ctx, span := tracer.Start(ctx, "gradebook.set_score")
	span.SetAttributes(
		attribute.Int64("gradebook.column_id", int64(columnID)),
		attribute.Int64("gradebook.student_id", int64(studentID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EntryResponse{}, err
	}

	column, err := s.gradebook.GetColumn(ctx, columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrColumnNotFound
		}
		return dto.EntryResponse{}, err
	}
	if column.Deleted {
		return dto.EntryResponse{}, ErrColumnDeleted
	}

	entry, err := s.gradebook.GetEntry(ctx, columnID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryResponse{}, ErrEntryNotFound
		}
		return dto.EntryResponse{}, err
	}

	history := models.GradebookEntryHistory{
		OldScore: entry.Score,
		NewScore: payload.Score,
		Reason:   s.sanitizer.Sanitize(strings.TrimSpace(payload.Reason)),
		EditorID: actor.ID,
	}

	updated, err := s.gradebook.UpdateEntryScore(ctx, entry.ID, payload.Score, &history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_write_failed")
		return dto.EntryResponse{}, err
	}

	s.recordActivity(ctx, actor, "gradebook.score_set", updated.ID, map[string]interface{}{
		"column_id":  columnID,
		"student_id": studentID,
		"score":      payload.Score,
	})

	// The score write stands even when recomputation fails; the mark catches
	// up on the next trigger.
	if s.recomputer != nil {
		if _, err := s.recomputer.ComputeFinal(ctx, column.OfferingID, studentID); err != nil {
			s.logger.Warn().Err(err).
				Uint("offering_id", column.OfferingID).
				Uint("student_id", studentID).
				Msg("recomputation after score edit failed")
			span.RecordError(err)
		}
	}

	return dto.NewEntryResponse(updated, column), nil
}

func (s *gradebookService) GetEntries(ctx context.Context, offeringID, studentID uint) ([]dto.EntryResponse, error) {
	entries, columns, err := s.gradebook.ListEntries(ctx, offeringID, studentID)
	if err != nil {
		return nil, err
	}

	columnByID := make(map[uint]models.GradebookColumn, len(columns))
	for _, column := range columns {
		columnByID[column.ID] = column
	}

	responses := make([]dto.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewEntryResponse(entry, columnByID[entry.ColumnID]))
	}

	return responses, nil
}

// IsComplete reports whether every non-deleted column of the offering has a
// graded entry for the student. It gates "ready to finalize" views.
func (s *gradebookService) IsComplete(ctx context.Context, offeringID, studentID uint) (dto.CompletenessResponse, error) {
	ungraded, err := s.gradebook.CountUngraded(ctx, offeringID, studentID)
	if err != nil {
		return dto.CompletenessResponse{}, err
	}

	return dto.CompletenessResponse{
		OfferingID: offeringID,
		StudentID:  studentID,
		Complete:   ungraded == 0,
		Ungraded:   ungraded,
	}, nil
}

func (s *gradebookService) History(ctx context.Context, entryID uint) ([]dto.EntryHistoryResponse, error) {
	history, err := s.gradebook.ListHistory(ctx, entryID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EntryHistoryResponse, 0, len(history))
	for _, record := range history {
		responses = append(responses, dto.NewEntryHistoryResponse(record))
	}

	return responses, nil
}

func (s *gradebookService) recordActivity(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "gradebook",
		EntityID:   &entityID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
