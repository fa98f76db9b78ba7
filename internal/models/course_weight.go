package models

import "time"

// GradingMethod selects how several raw scores of one assessment type are
// reduced to a single representative score.
type GradingMethod string

const (
	// GradingMethodHighest keeps the maximum raw score.
	GradingMethodHighest GradingMethod = "highest"
	// GradingMethodLatest keeps the score of the most recent attempt or column.
	GradingMethodLatest GradingMethod = "latest"
	// GradingMethodAverage keeps the arithmetic mean of all raw scores.
	GradingMethodAverage GradingMethod = "average"
)

// Valid reports whether the method is one of the three supported variants.
func (m GradingMethod) Valid() bool {
	switch m {
	case GradingMethodHighest, GradingMethodLatest, GradingMethodAverage:
		return true
	}
	return false
}

// CourseWeight assigns an assessment type a weight and grading method within a
// course. At most one active row may exist per (course, type). Version backs
// optimistic concurrency on administrative updates.
type CourseWeight struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CourseID         uint           `gorm:"not null;uniqueIndex:idx_course_weight_course_type" json:"course_id"`
	AssessmentTypeID uint           `gorm:"not null;uniqueIndex:idx_course_weight_course_type" json:"assessment_type_id"`
	Weight           float64        `gorm:"not null" json:"weight"`
	Method           GradingMethod  `gorm:"size:16;not null" json:"method"`
	Version          int            `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	AssessmentType   AssessmentType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment_type"`
}
