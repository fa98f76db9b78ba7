package dto

import (
	"time"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	OfferingID       *uint   `query:"offering_id"`
	StudentID        *uint   `query:"student_id"`
	AssessmentTypeID *uint   `query:"assessment_type_id"`
	Status           *string `query:"status" validate:"omitempty,oneof=in_progress finalized"`
}

// SubmissionAnswerResponse serializes one graded answer. IsCorrect and Score
// are null until the submission is finalized.
type SubmissionAnswerResponse struct {
	ID              uint     `json:"id"`
	QuestionPrompt  string   `json:"question_prompt"`
	SelectedOptions string   `json:"selected_options"`
	MaxScore        float64  `json:"max_score"`
	IsCorrect       *bool    `json:"is_correct"`
	Score           *float64 `json:"score"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint                       `json:"id"`
	OfferingID       uint                       `json:"offering_id"`
	StudentID        uint                       `json:"student_id"`
	AssessmentTypeID uint                       `json:"assessment_type_id"`
	AttemptIndex     int                        `json:"attempt_index"`
	Status           string                     `json:"status"`
	TotalScore       *float64                   `json:"total_score"`
	SubmittedAt      *time.Time                 `json:"submitted_at"`
	Answers          []SubmissionAnswerResponse `json:"answers"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	answers := make([]SubmissionAnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, SubmissionAnswerResponse{
			ID:              answer.ID,
			QuestionPrompt:  answer.QuestionPrompt,
			SelectedOptions: answer.SelectedOptions,
			MaxScore:        answer.MaxScore,
			IsCorrect:       answer.IsCorrect,
			Score:           answer.Score,
		})
	}

	return SubmissionResponse{
		ID:               model.ID,
		OfferingID:       model.OfferingID,
		StudentID:        model.StudentID,
		AssessmentTypeID: model.AssessmentTypeID,
		AttemptIndex:     model.AttemptIndex,
		Status:           model.Status,
		TotalScore:       model.TotalScore,
		SubmittedAt:      model.SubmittedAt,
		Answers:          answers,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
