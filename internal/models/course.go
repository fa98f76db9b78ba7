package models

import "time"

// Course is a unit of study. MinPassingScore is the inclusive threshold a
// student's final score must reach to pass an offering of this course.
type Course struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Code            string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	MinPassingScore float64   `gorm:"not null;default:60" json:"min_passing_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseOffering is one running instance of a course in a term.
type CourseOffering struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Term      string    `gorm:"size:32;not null" json:"term"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// Enrollment links a student to a course offering.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OfferingID uint      `gorm:"not null;uniqueIndex:idx_enrollment_offering_student" json:"offering_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_offering_student" json:"student_id"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

const (
	// EnrollmentStatusActive marks enrollments that receive gradebook entries.
	EnrollmentStatusActive = "active"
	// EnrollmentStatusWithdrawn marks students that left the offering.
	EnrollmentStatusWithdrawn = "withdrawn"
)
