package models

import "time"

// TopicMark is the derived final score and pass verdict for one student in one
// course offering. Exactly one row exists per (offering, student); every
// recomputation overwrites it in place. It is a cache over weight rows,
// gradebook entries and finalized submissions, never a source of truth.
type TopicMark struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OfferingID     uint      `gorm:"not null;uniqueIndex:idx_topic_mark_offering_student" json:"offering_id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_topic_mark_offering_student" json:"student_id"`
	FinalScore     float64   `gorm:"not null" json:"final_score"`
	IsPassed       bool      `gorm:"not null" json:"is_passed"`
	Comment        string    `gorm:"type:text" json:"comment"`
	LastComputedAt time.Time `gorm:"not null" json:"last_computed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
