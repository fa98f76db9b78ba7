package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/grading"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionAlreadyFinal indicates the attempt was already scored and closed.
var ErrSubmissionAlreadyFinal = errors.New("submission is already finalized")

// SubmissionScoringService finalizes attempts: every answer is scored against
// the question snapshot embedded at creation time, the totals are stored and
// the student's final mark is recomputed.
type SubmissionScoringService interface {
	Finalize(ctx context.Context, submissionID uint, actor ActivityActor) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type submissionScoringService struct {
	submissions repository.SubmissionRepository
	recomputer  MarkRecomputer
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionScoringService constructs the scoring service.
func NewSubmissionScoringService(submissions repository.SubmissionRepository, recomputer MarkRecomputer, activity ActivityRecorder, logger zerolog.Logger) SubmissionScoringService {
	return &submissionScoringService{
		submissions: submissions,
		recomputer:  recomputer,
		activity:    activity,
		logger:      logger.With().Str("component", "submission_scoring_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionScoringService) Finalize(ctx context.Context, submissionID uint, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/submission_scoring")
	ctx, span := tracer.Start(ctx, "submission.finalize")
	span.SetAttributes(attribute.Int64("submission.id", int64(submissionID)))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if submission.IsFinalized() {
		return dto.SubmissionResponse{}, ErrSubmissionAlreadyFinal
	}

	// Grading reads only the snapshot carried by each answer; edits to the
	// live question bank after the attempt was created are invisible here.
	var total float64
	for i := range submission.Answers {
		answer := &submission.Answers[i]
		result := grading.Grade(answer.SelectedOptions, answer.CorrectOptions, answer.MaxScore)
		isCorrect := result.IsCorrect
		score := result.Score
		answer.IsCorrect = &isCorrect
		answer.Score = &score
		total += score
	}

	submittedAt := s.now().UTC()
	submission.Status = models.SubmissionStatusFinalized
	submission.TotalScore = &total
	submission.SubmittedAt = &submittedAt

	if err := s.submissions.SaveGraded(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_save_failed")
		return dto.SubmissionResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.finalized",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"offering_id":        submission.OfferingID,
				"student_id":         submission.StudentID,
				"assessment_type_id": submission.AssessmentTypeID,
				"total_score":        total,
			},
		})
	}

	span.SetAttributes(attribute.Float64("submission.total_score", total))

	// Finalization stands even when the recomputation fails; the mark catches
	// up on the next trigger.
	if s.recomputer != nil {
		if _, err := s.recomputer.ComputeFinal(ctx, submission.OfferingID, submission.StudentID); err != nil {
			s.logger.Warn().Err(err).
				Uint("offering_id", submission.OfferingID).
				Uint("student_id", submission.StudentID).
				Msg("recomputation after submission finalization failed")
			span.RecordError(err)
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionScoringService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		OfferingID:       filter.OfferingID,
		StudentID:        filter.StudentID,
		AssessmentTypeID: filter.AssessmentTypeID,
		Status:           filter.Status,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}

	return responses, nil
}
