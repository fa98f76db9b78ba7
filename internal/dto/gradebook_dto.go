package dto

import (
	"time"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// ColumnCreateRequest adds a gradebook column to an offering.
type ColumnCreateRequest struct {
	AssessmentTypeID uint   `json:"assessment_type_id" validate:"required,gt=0"`
	Label            string `json:"label" validate:"required,min=1,max=255"`
}

// SetScoreRequest records or re-confirms one student's score under a column.
// Score stays a pointer end-to-end: null means "clear back to ungraded".
type SetScoreRequest struct {
	Score  *float64 `json:"score" validate:"omitempty,gte=0"`
	Reason string   `json:"reason" validate:"max=1024"`
}

// ColumnResponse serializes a gradebook column.
type ColumnResponse struct {
	ID               uint      `json:"id"`
	OfferingID       uint      `json:"offering_id"`
	AssessmentTypeID uint      `json:"assessment_type_id"`
	AssessmentType   string    `json:"assessment_type"`
	Index            int       `json:"index"`
	Label            string    `json:"label"`
	Deleted          bool      `json:"deleted"`
	CreatedAt        time.Time `json:"created_at"`
}

// EntryResponse serializes one student's entry under a column. A null score
// means ungraded, which is not the same as a recorded zero.
type EntryResponse struct {
	ID        uint           `json:"id"`
	StudentID uint           `json:"student_id"`
	Score     *float64       `json:"score"`
	UpdatedAt time.Time      `json:"updated_at"`
	Column    ColumnResponse `json:"column"`
}

// EntryHistoryResponse serializes one append-only edit record.
type EntryHistoryResponse struct {
	ID        uint      `json:"id"`
	EntryID   uint      `json:"entry_id"`
	OldScore  *float64  `json:"old_score"`
	NewScore  *float64  `json:"new_score"`
	Reason    string    `json:"reason"`
	EditorID  uint      `json:"editor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletenessResponse reports whether every non-deleted column has a graded
// entry for the student.
type CompletenessResponse struct {
	OfferingID uint  `json:"offering_id"`
	StudentID  uint  `json:"student_id"`
	Complete   bool  `json:"complete"`
	Ungraded   int64 `json:"ungraded"`
}

// NewColumnResponse converts a GradebookColumn model into a DTO.
func NewColumnResponse(model models.GradebookColumn) ColumnResponse {
	return ColumnResponse{
		ID:               model.ID,
		OfferingID:       model.OfferingID,
		AssessmentTypeID: model.AssessmentTypeID,
		AssessmentType:   model.AssessmentType.Name,
		Index:            model.Index,
		Label:            model.Label,
		Deleted:          model.Deleted,
		CreatedAt:        model.CreatedAt,
	}
}

// NewEntryResponse converts an entry and its column into a DTO.
func NewEntryResponse(entry models.GradebookEntry, column models.GradebookColumn) EntryResponse {
	return EntryResponse{
		ID:        entry.ID,
		StudentID: entry.StudentID,
		Score:     entry.Score,
		UpdatedAt: entry.UpdatedAt,
		Column:    NewColumnResponse(column),
	}
}

// NewEntryHistoryResponse converts a history record into a DTO.
func NewEntryHistoryResponse(model models.GradebookEntryHistory) EntryHistoryResponse {
	return EntryHistoryResponse{
		ID:        model.ID,
		EntryID:   model.EntryID,
		OldScore:  model.OldScore,
		NewScore:  model.NewScore,
		Reason:    model.Reason,
		EditorID:  model.EditorID,
		CreatedAt: model.CreatedAt,
	}
}
