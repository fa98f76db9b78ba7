package models

import "time"

// Question belongs to the live question bank of an offering. Submissions copy
// the fields they need at creation time; later edits to a question never
// affect grading of existing attempts.
type Question struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OfferingID       uint      `gorm:"not null;index" json:"offering_id"`
	AssessmentTypeID uint      `gorm:"not null;index" json:"assessment_type_id"`
	Prompt           string    `gorm:"type:text;not null" json:"prompt"`
	CorrectOptions   string    `gorm:"size:255;not null" json:"correct_options"`
	MaxScore         float64   `gorm:"not null" json:"max_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Submission is one attempt by a student at an assessment. TotalScore stays
// nil until the attempt is finalized and auto-scored.
type Submission struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	OfferingID       uint               `gorm:"not null;index" json:"offering_id"`
	StudentID        uint               `gorm:"not null;index" json:"student_id"`
	AssessmentTypeID uint               `gorm:"not null;index" json:"assessment_type_id"`
	AttemptIndex     int                `gorm:"not null" json:"attempt_index"`
	Status           string             `gorm:"size:32;not null" json:"status"`
	TotalScore       *float64           `json:"total_score"`
	SubmittedAt      *time.Time         `json:"submitted_at"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Answers          []SubmissionAnswer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

const (
	// SubmissionStatusInProgress indicates the attempt is still open.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusFinalized indicates the attempt is scored and closed.
	SubmissionStatusFinalized = "finalized"
)

// IsFinalized reports whether the submission has been scored and closed.
func (s Submission) IsFinalized() bool {
	return s.Status == SubmissionStatusFinalized
}

// SubmissionAnswer carries the student's selected options together with a
// snapshot of the question it answers (prompt, correct set, max score) frozen
// when the attempt was created. IsCorrect and Score stay nil until grading.
type SubmissionAnswer struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SubmissionID    uint      `gorm:"not null;index" json:"submission_id"`
	QuestionPrompt  string    `gorm:"type:text;not null" json:"question_prompt"`
	CorrectOptions  string    `gorm:"size:255;not null" json:"correct_options"`
	MaxScore        float64   `gorm:"not null" json:"max_score"`
	SelectedOptions string    `gorm:"size:255" json:"selected_options"`
	IsCorrect       *bool     `json:"is_correct"`
	Score           *float64  `json:"score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
