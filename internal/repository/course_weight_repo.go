package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// CourseWeightRepository persists per-course weight configuration rows.
type CourseWeightRepository interface {
	Create(ctx context.Context, weight *models.CourseWeight) error
	GetByID(ctx context.Context, id uint) (models.CourseWeight, error)
	GetByCourseAndType(ctx context.Context, courseID, assessmentTypeID uint) (models.CourseWeight, error)
	UpdateVersioned(ctx context.Context, weight *models.CourseWeight, expectedVersion int) (bool, error)
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.CourseWeight, error)
}

type courseWeightRepository struct {
	db *gorm.DB
}

// NewCourseWeightRepository constructs the weight configuration repository.
func NewCourseWeightRepository(db *gorm.DB) CourseWeightRepository {
	return &courseWeightRepository{db: db}
}

func (r *courseWeightRepository) Create(ctx context.Context, weight *models.CourseWeight) error {
	return r.db.WithContext(ctx).Create(weight).Error
}

func (r *courseWeightRepository) GetByID(ctx context.Context, id uint) (models.CourseWeight, error) {
	var weight models.CourseWeight
	if err := r.db.WithContext(ctx).Preload("AssessmentType").First(&weight, id).Error; err != nil {
		return models.CourseWeight{}, err
	}

	return weight, nil
}

func (r *courseWeightRepository) GetByCourseAndType(ctx context.Context, courseID, assessmentTypeID uint) (models.CourseWeight, error) {
	var weight models.CourseWeight
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("assessment_type_id = ?", assessmentTypeID).
		First(&weight).Error; err != nil {
		return models.CourseWeight{}, err
	}

	return weight, nil
}

// UpdateVersioned applies the update only when the stored version still equals
// expectedVersion, bumping the version in the same statement. It reports
// whether a row was written; false means a concurrent update won.
func (r *courseWeightRepository) UpdateVersioned(ctx context.Context, weight *models.CourseWeight, expectedVersion int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CourseWeight{}).
		Where("id = ?", weight.ID).
		Where("version = ?", expectedVersion).
		Updates(map[string]interface{}{
			"assessment_type_id": weight.AssessmentTypeID,
			"weight":             weight.Weight,
			"method":             weight.Method,
			"version":            expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	weight.Version = expectedVersion + 1
	return true, nil
}

func (r *courseWeightRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CourseWeight{}, id).Error
}

func (r *courseWeightRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.CourseWeight, error) {
	var weights []models.CourseWeight
	if err := r.db.WithContext(ctx).
		Preload("AssessmentType").
		Where("course_id = ?", courseID).
		Order("assessment_type_id ASC").
		Find(&weights).Error; err != nil {
		return nil, err
	}

	return weights, nil
}
