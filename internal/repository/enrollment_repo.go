package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// EnrollmentRepository exposes the enrollment reads needed by the gradebook.
type EnrollmentRepository interface {
	ActiveStudentIDs(ctx context.Context, offeringID uint) ([]uint, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ActiveStudentIDs(ctx context.Context, offeringID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("offering_id = ?", offeringID).
		Where("status = ?", models.EnrollmentStatusActive).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
