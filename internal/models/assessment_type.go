package models

import "time"

// AssessmentType is a grading category such as Quiz, Exam or Lab. Types are
// referenced by weight rows and gradebook columns, never embedded.
type AssessmentType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
