package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// AssessmentTypeRepository resolves assessment type references.
type AssessmentTypeRepository interface {
	GetByID(ctx context.Context, id uint) (models.AssessmentType, error)
	List(ctx context.Context) ([]models.AssessmentType, error)
}

type assessmentTypeRepository struct {
	db *gorm.DB
}

// NewAssessmentTypeRepository constructs the assessment type repository.
func NewAssessmentTypeRepository(db *gorm.DB) AssessmentTypeRepository {
	return &assessmentTypeRepository{db: db}
}

func (r *assessmentTypeRepository) GetByID(ctx context.Context, id uint) (models.AssessmentType, error) {
	var assessmentType models.AssessmentType
	if err := r.db.WithContext(ctx).First(&assessmentType, id).Error; err != nil {
		return models.AssessmentType{}, err
	}

	return assessmentType, nil
}

func (r *assessmentTypeRepository) List(ctx context.Context) ([]models.AssessmentType, error) {
	var types []models.AssessmentType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}

	return types, nil
}

// OfferingRepository loads course offerings together with their course policy.
type OfferingRepository interface {
	GetByID(ctx context.Context, id uint) (models.CourseOffering, error)
}

type offeringRepository struct {
	db *gorm.DB
}

// NewOfferingRepository constructs the offering repository.
func NewOfferingRepository(db *gorm.DB) OfferingRepository {
	return &offeringRepository{db: db}
}

func (r *offeringRepository) GetByID(ctx context.Context, id uint) (models.CourseOffering, error) {
	var offering models.CourseOffering
	if err := r.db.WithContext(ctx).Preload("Course").First(&offering, id).Error; err != nil {
		return models.CourseOffering{}, err
	}

	return offering, nil
}

// CourseRepository resolves course references for weight configuration.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}
