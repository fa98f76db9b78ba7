package models

import "time"

// GradebookColumn is one gradable unit (e.g. "Quiz 2") under an assessment
// type within a course offering. Index is assigned per (offering, type),
// starting at 1. Columns are soft-deleted only; history under them survives.
type GradebookColumn struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	OfferingID       uint           `gorm:"not null;index" json:"offering_id"`
	AssessmentTypeID uint           `gorm:"not null;index" json:"assessment_type_id"`
	Index            int            `gorm:"column:idx;not null" json:"index"`
	Label            string         `gorm:"size:255;not null" json:"label"`
	Deleted          bool           `gorm:"not null;default:false" json:"deleted"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	AssessmentType   AssessmentType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment_type"`
}

// GradebookEntry holds one student's score under one column. A nil score means
// "not yet graded" and is distinct from a recorded zero.
type GradebookEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ColumnID  uint      `gorm:"not null;uniqueIndex:idx_entry_column_student" json:"column_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_entry_column_student" json:"student_id"`
	Score     *float64  `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGraded reports whether the entry carries a recorded score.
func (e GradebookEntry) IsGraded() bool {
	return e.Score != nil
}

// GradebookEntryHistory records one explicit score edit. Rows are append-only
// and written in the same transaction as the entry update.
type GradebookEntryHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EntryID   uint      `gorm:"not null;index" json:"entry_id"`
	OldScore  *float64  `json:"old_score"`
	NewScore  *float64  `json:"new_score"`
	Reason    string    `gorm:"type:text" json:"reason"`
	EditorID  uint      `gorm:"not null" json:"editor_id"`
	CreatedAt time.Time `json:"created_at"`
}
