package dto

import (
	"time"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// WeightConfigCreateRequest creates a weight row for (course, type).
type WeightConfigCreateRequest struct {
	AssessmentTypeID uint    `json:"assessment_type_id" validate:"required,gt=0"`
	Weight           float64 `json:"weight" validate:"gte=0,lte=1"`
	Method           string  `json:"method" validate:"required,oneof=highest latest average"`
}

// WeightConfigUpdateRequest updates weight, method and optionally the type of
// an existing row. Version must match the stored row for the write to apply.
type WeightConfigUpdateRequest struct {
	AssessmentTypeID *uint    `json:"assessment_type_id" validate:"omitempty,gt=0"`
	Weight           *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`
	Method           *string  `json:"method" validate:"omitempty,oneof=highest latest average"`
	Version          int      `json:"version" validate:"required,gt=0"`
}

// WeightConfigResponse serializes one weight configuration row.
type WeightConfigResponse struct {
	ID               uint      `json:"id"`
	CourseID         uint      `json:"course_id"`
	AssessmentTypeID uint      `json:"assessment_type_id"`
	AssessmentType   string    `json:"assessment_type"`
	Weight           float64   `json:"weight"`
	Method           string    `json:"method"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WeightConfigListResponse lists a course's weight rows together with their
// sum. The engine does not enforce sum == 1; callers apply their own policy.
type WeightConfigListResponse struct {
	CourseID  uint                   `json:"course_id"`
	Weights   []WeightConfigResponse `json:"weights"`
	WeightSum float64                `json:"weight_sum"`
}

// NewWeightConfigResponse converts a CourseWeight model into a DTO.
func NewWeightConfigResponse(model models.CourseWeight) WeightConfigResponse {
	return WeightConfigResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		AssessmentTypeID: model.AssessmentTypeID,
		AssessmentType:   model.AssessmentType.Name,
		Weight:           model.Weight,
		Method:           string(model.Method),
		Version:          model.Version,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
