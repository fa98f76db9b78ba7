package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// GradebookRepository persists columns, entries and the append-only edit
// history. Score writes and their history rows share one transaction; a score
// can never change without a matching history record.
type GradebookRepository interface {
	CreateColumnWithEntries(ctx context.Context, column *models.GradebookColumn, studentIDs []uint) error
	GetColumn(ctx context.Context, id uint) (models.GradebookColumn, error)
	NextIndex(ctx context.Context, offeringID, assessmentTypeID uint) (int, error)
	ColumnHasScores(ctx context.Context, columnID uint) (bool, error)
	SoftDeleteColumn(ctx context.Context, columnID uint) error
	GetEntry(ctx context.Context, columnID, studentID uint) (models.GradebookEntry, error)
	UpdateEntryScore(ctx context.Context, entryID uint, newScore *float64, history *models.GradebookEntryHistory) (models.GradebookEntry, error)
	ListEntries(ctx context.Context, offeringID, studentID uint) ([]models.GradebookEntry, []models.GradebookColumn, error)
	ListColumns(ctx context.Context, offeringID uint) ([]models.GradebookColumn, error)
	CountUngraded(ctx context.Context, offeringID, studentID uint) (int64, error)
	ListHistory(ctx context.Context, entryID uint) ([]models.GradebookEntryHistory, error)
}

type gradebookRepository struct {
	db *gorm.DB
}

// NewGradebookRepository constructs the gradebook repository.
func NewGradebookRepository(db *gorm.DB) GradebookRepository {
	return &gradebookRepository{db: db}
}

// CreateColumnWithEntries inserts the column and provisions one ungraded entry
// per enrolled student in a single transaction.
func (r *gradebookRepository) CreateColumnWithEntries(ctx context.Context, column *models.GradebookColumn, studentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(column).Error; err != nil {
			return err
		}

		if len(studentIDs) == 0 {
			return nil
		}

		entries := make([]models.GradebookEntry, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			entries = append(entries, models.GradebookEntry{ColumnID: column.ID, StudentID: studentID})
		}

		return tx.Create(&entries).Error
	})
}

func (r *gradebookRepository) GetColumn(ctx context.Context, id uint) (models.GradebookColumn, error) {
	var column models.GradebookColumn
	if err := r.db.WithContext(ctx).Preload("AssessmentType").First(&column, id).Error; err != nil {
		return models.GradebookColumn{}, err
	}

	return column, nil
}

// NextIndex returns max(existing index)+1 for (offering, type), starting at 1.
// Soft-deleted columns keep their slot so labels stay unambiguous.
func (r *gradebookRepository) NextIndex(ctx context.Context, offeringID, assessmentTypeID uint) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).Model(&models.GradebookColumn{}).
		Where("offering_id = ?", offeringID).
		Where("assessment_type_id = ?", assessmentTypeID).
		Select("MAX(idx)").
		Scan(&max).Error; err != nil {
		return 0, err
	}

	if max == nil {
		return 1, nil
	}

	return *max + 1, nil
}

func (r *gradebookRepository) ColumnHasScores(ctx context.Context, columnID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GradebookEntry{}).
		Where("column_id = ?", columnID).
		Where("score IS NOT NULL").
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *gradebookRepository) SoftDeleteColumn(ctx context.Context, columnID uint) error {
	return r.db.WithContext(ctx).Model(&models.GradebookColumn{}).
		Where("id = ?", columnID).
		Update("deleted", true).Error
}

func (r *gradebookRepository) GetEntry(ctx context.Context, columnID, studentID uint) (models.GradebookEntry, error) {
	var entry models.GradebookEntry
	if err := r.db.WithContext(ctx).
		Where("column_id = ?", columnID).
		Where("student_id = ?", studentID).
		First(&entry).Error; err != nil {
		return models.GradebookEntry{}, err
	}

	return entry, nil
}

// UpdateEntryScore writes the new score and appends the history row in one
// transaction. The history row is written even when the score is unchanged; a
// re-confirmation is still an auditable edit.
func (r *gradebookRepository) UpdateEntryScore(ctx context.Context, entryID uint, newScore *float64, history *models.GradebookEntryHistory) (models.GradebookEntry, error) {
	var entry models.GradebookEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, entryID).Error; err != nil {
			return err
		}

		entry.Score = newScore
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		history.EntryID = entry.ID
		return tx.Create(history).Error
	})
	if err != nil {
		return models.GradebookEntry{}, err
	}

	return entry, nil
}

// ListEntries returns the student's entries under non-deleted columns of the
// offering, together with those columns, both ordered by type then index.
func (r *gradebookRepository) ListEntries(ctx context.Context, offeringID, studentID uint) ([]models.GradebookEntry, []models.GradebookColumn, error) {
	columns, err := r.activeColumns(ctx, offeringID)
	if err != nil {
		return nil, nil, err
	}

	if len(columns) == 0 {
		return nil, nil, nil
	}

	columnIDs := make([]uint, 0, len(columns))
	for _, column := range columns {
		columnIDs = append(columnIDs, column.ID)
	}

	var entries []models.GradebookEntry
	if err := r.db.WithContext(ctx).
		Where("column_id IN ?", columnIDs).
		Where("student_id = ?", studentID).
		Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	return entries, columns, nil
}

func (r *gradebookRepository) ListColumns(ctx context.Context, offeringID uint) ([]models.GradebookColumn, error) {
	var columns []models.GradebookColumn
	if err := r.db.WithContext(ctx).
		Preload("AssessmentType").
		Where("offering_id = ?", offeringID).
		Order("assessment_type_id ASC, idx ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}

	return columns, nil
}

func (r *gradebookRepository) activeColumns(ctx context.Context, offeringID uint) ([]models.GradebookColumn, error) {
	var columns []models.GradebookColumn
	if err := r.db.WithContext(ctx).
		Preload("AssessmentType").
		Where("offering_id = ?", offeringID).
		Where("deleted = ?", false).
		Order("assessment_type_id ASC, idx ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}

	return columns, nil
}

// CountUngraded counts non-deleted columns of the offering whose entry for the
// student is missing or still nil. Zero means the gradebook is complete.
func (r *gradebookRepository) CountUngraded(ctx context.Context, offeringID, studentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GradebookColumn{}).
		Where("offering_id = ?", offeringID).
		Where("deleted = ?", false).
		Where(`id NOT IN (?)`,
			r.db.Model(&models.GradebookEntry{}).
				Select("column_id").
				Where("student_id = ?", studentID).
				Where("score IS NOT NULL"),
		).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *gradebookRepository) ListHistory(ctx context.Context, entryID uint) ([]models.GradebookEntryHistory, error) {
	var history []models.GradebookEntryHistory
	if err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}

	return history, nil
}
