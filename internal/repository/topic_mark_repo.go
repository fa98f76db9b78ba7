package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// TopicMarkRepository stores the derived final mark per (offering, student).
// Upsert overwrites in place; the mark is a cache, never appended to.
type TopicMarkRepository interface {
	Get(ctx context.Context, offeringID, studentID uint) (models.TopicMark, error)
	Upsert(ctx context.Context, mark *models.TopicMark) error
	ListByOffering(ctx context.Context, offeringID uint) ([]models.TopicMark, error)
}

type topicMarkRepository struct {
	db *gorm.DB
}

// NewTopicMarkRepository constructs the topic mark repository.
func NewTopicMarkRepository(db *gorm.DB) TopicMarkRepository {
	return &topicMarkRepository{db: db}
}

func (r *topicMarkRepository) Get(ctx context.Context, offeringID, studentID uint) (models.TopicMark, error) {
	var mark models.TopicMark
	if err := r.db.WithContext(ctx).
		Where("offering_id = ?", offeringID).
		Where("student_id = ?", studentID).
		First(&mark).Error; err != nil {
		return models.TopicMark{}, err
	}

	return mark, nil
}

func (r *topicMarkRepository) Upsert(ctx context.Context, mark *models.TopicMark) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "offering_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"final_score", "is_passed", "comment", "last_computed_at", "updated_at",
		}),
	}).Create(mark).Error
}

func (r *topicMarkRepository) ListByOffering(ctx context.Context, offeringID uint) ([]models.TopicMark, error) {
	var marks []models.TopicMark
	if err := r.db.WithContext(ctx).
		Where("offering_id = ?", offeringID).
		Order("student_id ASC").
		Find(&marks).Error; err != nil {
		return nil, err
	}

	return marks, nil
}
