package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	OfferingID       *uint
	StudentID        *uint
	AssessmentTypeID *uint
	Status           *string
}

// SubmissionRepository defines data operations for submissions and their
// answer snapshots.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	ListFinalized(ctx context.Context, offeringID, studentID, assessmentTypeID uint) ([]models.Submission, error)
	SaveGraded(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs the submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.OfferingID != nil {
		query = query.Where("offering_id = ?", *filter.OfferingID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.AssessmentTypeID != nil {
		query = query.Where("assessment_type_id = ?", *filter.AssessmentTypeID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListFinalized returns finalized attempts for one (offering, student, type),
// ordered by attempt index then submission time so the latest attempt is last.
func (r *submissionRepository) ListFinalized(ctx context.Context, offeringID, studentID, assessmentTypeID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("offering_id = ?", offeringID).
		Where("student_id = ?", studentID).
		Where("assessment_type_id = ?", assessmentTypeID).
		Where("status = ?", models.SubmissionStatusFinalized).
		Order("attempt_index ASC, submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// SaveGraded persists the finalized submission and its graded answers in one
// transaction.
func (r *submissionRepository) SaveGraded(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Answers").Save(submission).Error; err != nil {
			return err
		}

		for i := range submission.Answers {
			if err := tx.Save(&submission.Answers[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
